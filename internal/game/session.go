package game

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geoquizz/geoquizz-backend/internal/geo"
	"github.com/geoquizz/geoquizz-backend/internal/history"
)

// Sessions manages the two untimed play modes: solo sessions and free-run
// multiplayer rooms where every player progresses at their own pace. Plain
// CRUD over maps; nothing here shares a timer or a phase.
type Sessions struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	freeRooms map[string]*FreeRoom
	history   HistoryAppender
}

func NewSessions(hist HistoryAppender) *Sessions {
	return &Sessions{
		sessions:  make(map[string]*Session),
		freeRooms: make(map[string]*FreeRoom),
		history:   hist,
	}
}

type Session struct {
	ID           string        `json:"id"`
	PlayerName   string        `json:"player_name"`
	CreatedAt    time.Time     `json:"created_at"`
	NumRounds    int           `json:"num_rounds"`
	CurrentRound int           `json:"current_round"`
	Photos       []Photo       `json:"-"`
	Guesses      []GuessResult `json:"guesses"`
	Scores       []int         `json:"scores"`
	TotalScore   int           `json:"total_score"`
	Finished     bool          `json:"finished"`
}

// GuessResult is one resolved round, true coordinates included.
type GuessResult struct {
	Round      int     `json:"round"`
	GuessLat   float64 `json:"guess_lat"`
	GuessLon   float64 `json:"guess_lon"`
	TrueLat    float64 `json:"true_lat"`
	TrueLon    float64 `json:"true_lon"`
	DistanceKm float64 `json:"distance_km"`
	Score      int     `json:"score"`
}

// PhotoView is what a player is allowed to see before guessing.
type PhotoView struct {
	Path        string `json:"path"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"total_rounds"`
}

func (s *Sessions) CreateSession(playerName string, photos []Photo, numRounds int) (string, error) {
	if numRounds < 1 {
		numRounds = defaultNumRounds
	}
	if len(photos) == 0 {
		return "", ErrNoPhotos
	}
	if len(photos) > numRounds {
		photos = photos[:numRounds]
	}
	if len(photos) < numRounds {
		numRounds = len(photos)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &Session{
		ID:         id,
		PlayerName: playerName,
		CreatedAt:  time.Now(),
		NumRounds:  numRounds,
		Photos:     append([]Photo(nil), photos...),
	}
	s.mu.Unlock()

	log.Printf("[CreateSession] session=%s player=%s rounds=%d", id, playerName, numRounds)
	return id, nil
}

// CurrentPhoto returns the active round's photo without its coordinates.
func (s *Sessions) CurrentPhoto(sessionID string) (PhotoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Finished {
		return PhotoView{}, ErrSessionNotFound
	}
	return PhotoView{
		Path:        sess.Photos[sess.CurrentRound].Path,
		Round:       sess.CurrentRound + 1,
		TotalRounds: sess.NumRounds,
	}, nil
}

// SubmitGuess scores the guess, advances the round and, on the last round,
// finishes the session and writes its history record.
func (s *Sessions) SubmitGuess(sessionID string, lat, lon float64) (GuessResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Finished {
		s.mu.Unlock()
		return GuessResult{}, ErrSessionNotFound
	}

	photo := sess.Photos[sess.CurrentRound]
	dist := geo.DistanceKm(lat, lon, photo.Latitude, photo.Longitude)
	result := GuessResult{
		Round:      sess.CurrentRound + 1,
		GuessLat:   lat,
		GuessLon:   lon,
		TrueLat:    photo.Latitude,
		TrueLon:    photo.Longitude,
		DistanceKm: roundTo2(dist),
		Score:      Score(dist),
	}

	sess.Guesses = append(sess.Guesses, result)
	sess.Scores = append(sess.Scores, result.Score)
	sess.TotalScore += result.Score
	sess.CurrentRound++

	var rec *history.Record
	if sess.CurrentRound >= sess.NumRounds {
		sess.Finished = true
		rec = &history.Record{
			PlayerName:   sess.PlayerName,
			Date:         sess.CreatedAt,
			TotalScore:   sess.TotalScore,
			NumRounds:    sess.NumRounds,
			AverageScore: roundTo2(float64(sess.TotalScore) / float64(sess.NumRounds)),
		}
	}
	s.mu.Unlock()

	if rec != nil {
		go s.appendRecord(*rec)
	}
	return result, nil
}

func (s *Sessions) Summary(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	cp.Guesses = append([]GuessResult(nil), sess.Guesses...)
	cp.Scores = append([]int(nil), sess.Scores...)
	return &cp, nil
}

// FreeRoom is the fire-and-forget multiplayer mode: a shared photo list but
// no shared clock, every player runs their own round counter.
type FreeRoom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HostName  string    `json:"host"`
	CreatedAt time.Time `json:"created_at"`
	NumRounds int       `json:"num_rounds"`
	Photos    []Photo   `json:"-"`
	Started   bool      `json:"started"`
	Finished  bool      `json:"finished"`

	Players map[string]*FreePlayer `json:"-"`
}

type FreePlayer struct {
	CurrentRound int           `json:"current_round"`
	Guesses      []GuessResult `json:"guesses"`
	Scores       []int         `json:"scores"`
	TotalScore   int           `json:"total_score"`
	Finished     bool          `json:"finished"`
}

type FreeRoomPlayerInfo struct {
	Name         string `json:"name"`
	TotalScore   int    `json:"total_score"`
	CurrentRound int    `json:"current_round"`
	Finished     bool   `json:"finished"`
}

type FreeRoomInfo struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	HostName  string               `json:"host"`
	NumRounds int                  `json:"num_rounds"`
	Started   bool                 `json:"started"`
	Finished  bool                 `json:"finished"`
	Players   []FreeRoomPlayerInfo `json:"players"`
}

func (s *Sessions) CreateFreeRoom(roomName, hostName string, photos []Photo, numRounds int) (string, error) {
	if numRounds < 1 {
		numRounds = defaultNumRounds
	}
	if len(photos) == 0 {
		return "", ErrNoPhotos
	}
	if len(photos) > numRounds {
		photos = photos[:numRounds]
	}
	if len(photos) < numRounds {
		numRounds = len(photos)
	}

	id := uuid.NewString()[:8]
	room := &FreeRoom{
		ID:        id,
		Name:      roomName,
		HostName:  hostName,
		CreatedAt: time.Now(),
		NumRounds: numRounds,
		Photos:    append([]Photo(nil), photos...),
		Players:   map[string]*FreePlayer{hostName: {}},
	}

	s.mu.Lock()
	s.freeRooms[id] = room
	s.mu.Unlock()

	log.Printf("[CreateFreeRoom] room=%s name=%q host=%s", id, roomName, hostName)
	return id, nil
}

// JoinFreeRoom is idempotent for a name already in the room.
func (s *Sessions) JoinFreeRoom(roomID, playerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.freeRooms[roomID]
	if !ok || room.Finished {
		return ErrRoomNotFound
	}
	if _, ok := room.Players[playerName]; !ok {
		room.Players[playerName] = &FreePlayer{}
	}
	return nil
}

func (s *Sessions) StartFreeRoom(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.freeRooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Started {
		return ErrWrongPhase
	}
	room.Started = true
	return nil
}

func (s *Sessions) FreeRoomInfo(roomID string) (FreeRoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.freeRooms[roomID]
	if !ok {
		return FreeRoomInfo{}, ErrRoomNotFound
	}
	info := FreeRoomInfo{
		ID:        room.ID,
		Name:      room.Name,
		HostName:  room.HostName,
		NumRounds: room.NumRounds,
		Started:   room.Started,
		Finished:  room.Finished,
	}
	for name, p := range room.Players {
		info.Players = append(info.Players, FreeRoomPlayerInfo{
			Name:         name,
			TotalScore:   p.TotalScore,
			CurrentRound: p.CurrentRound,
			Finished:     p.Finished,
		})
	}
	return info, nil
}

func (s *Sessions) FreeRoomPhoto(roomID, playerName string) (PhotoView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.freeRooms[roomID]
	if !ok || !room.Started {
		return PhotoView{}, ErrRoomNotFound
	}
	p, ok := room.Players[playerName]
	if !ok {
		return PhotoView{}, ErrUnknownPlayer
	}
	if p.Finished || p.CurrentRound >= len(room.Photos) {
		return PhotoView{}, ErrWrongPhase
	}
	return PhotoView{
		Path:        room.Photos[p.CurrentRound].Path,
		Round:       p.CurrentRound + 1,
		TotalRounds: room.NumRounds,
	}, nil
}

func (s *Sessions) SubmitFreeGuess(roomID, playerName string, lat, lon float64) (GuessResult, error) {
	s.mu.Lock()
	room, ok := s.freeRooms[roomID]
	if !ok || !room.Started {
		s.mu.Unlock()
		return GuessResult{}, ErrRoomNotFound
	}
	p, ok := room.Players[playerName]
	if !ok {
		s.mu.Unlock()
		return GuessResult{}, ErrUnknownPlayer
	}
	if p.Finished || p.CurrentRound >= len(room.Photos) {
		s.mu.Unlock()
		return GuessResult{}, ErrWrongPhase
	}

	photo := room.Photos[p.CurrentRound]
	dist := geo.DistanceKm(lat, lon, photo.Latitude, photo.Longitude)
	result := GuessResult{
		Round:      p.CurrentRound + 1,
		GuessLat:   lat,
		GuessLon:   lon,
		TrueLat:    photo.Latitude,
		TrueLon:    photo.Longitude,
		DistanceKm: roundTo2(dist),
		Score:      Score(dist),
	}
	p.Guesses = append(p.Guesses, result)
	p.Scores = append(p.Scores, result.Score)
	p.TotalScore += result.Score
	p.CurrentRound++
	if p.CurrentRound >= room.NumRounds {
		p.Finished = true
	}

	var records []history.Record
	allFinished := true
	for _, pl := range room.Players {
		if !pl.Finished {
			allFinished = false
			break
		}
	}
	if allFinished {
		room.Finished = true
		for name, pl := range room.Players {
			records = append(records, history.Record{
				PlayerName:   name,
				Date:         room.CreatedAt,
				TotalScore:   pl.TotalScore,
				NumRounds:    room.NumRounds,
				AverageScore: roundTo2(float64(pl.TotalScore) / float64(room.NumRounds)),
				Multiplayer:  true,
				RoomName:     room.Name,
			})
		}
	}
	s.mu.Unlock()

	for _, rec := range records {
		go s.appendRecord(rec)
	}
	return result, nil
}

func (s *Sessions) FreeRoomLeaderboard(roomID string) ([]FreeRoomPlayerInfo, error) {
	info, err := s.FreeRoomInfo(roomID)
	if err != nil {
		return nil, err
	}
	board := info.Players
	sort.SliceStable(board, func(i, j int) bool {
		return board[i].TotalScore > board[j].TotalScore
	})
	return board, nil
}

func (s *Sessions) appendRecord(rec history.Record) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.Append(ctx, rec); err != nil {
		log.Printf("[appendRecord] player=%s: %v", rec.PlayerName, err)
	}
}
