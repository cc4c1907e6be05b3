package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geoquizz/geoquizz-backend/internal/history"
)

// HistoryAppender is the slice of the history store the engine needs.
// Appends are best-effort; failures are logged and never reach game state.
type HistoryAppender interface {
	Append(ctx context.Context, rec history.Record) error
}

const (
	finishedRoomTTL  = 10 * time.Minute
	emptyLobbyTTL    = 30 * time.Minute
	sweepInterval    = time.Minute
	MinPlayersToRun  = 2
	defaultNumRounds = 5
)

// Registry owns every live synchronized room. The registry map has its own
// narrow lock; each room carries its own mutex so one busy room cannot stall
// the others.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	broadcaster Broadcaster
	history     HistoryAppender
	opts        RoomOptions
}

func NewRegistry(b Broadcaster, hist HistoryAppender, opts RoomOptions) *Registry {
	if b == nil {
		b = NopBroadcaster{}
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		broadcaster: b,
		history:     hist,
		opts:        opts.withDefaults(),
	}
}

// CreateRoom allocates a room seeded with the host as its first player and
// returns the short shareable room id.
func (g *Registry) CreateRoom(name, hostName string, photos []Photo, numRounds int) (string, error) {
	if numRounds < 1 {
		numRounds = defaultNumRounds
	}
	if len(photos) < numRounds {
		return "", ErrNoPhotos
	}

	roomID := uuid.NewString()[:8]
	room := &Room{
		ID:        roomID,
		Name:      name,
		HostName:  hostName,
		NumRounds: numRounds,
		Photos:    append([]Photo(nil), photos[:numRounds]...),
		Phase:     PhaseLobby,
		Players:   make(map[string]*Player),
		opts:      g.opts,
		createdAt: time.Now(),
	}
	room.Players[hostName] = &Player{
		Name:      hostName,
		Color:     ColorPalette[0],
		Connected: true,
		IsHost:    true,
		JoinedAt:  time.Now(),
	}
	room.order = []string{hostName}

	g.mu.Lock()
	g.rooms[roomID] = room
	g.mu.Unlock()

	log.Printf("[CreateRoom] room=%s name=%q host=%s rounds=%d", roomID, name, hostName, numRounds)
	return roomID, nil
}

func (g *Registry) Get(roomID string) (*Room, error) {
	g.mu.RLock()
	room, ok := g.rooms[roomID]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// JoinResult reports the joined player's color and whether this was a
// reconnection of an existing roster entry.
type JoinResult struct {
	Color       string `json:"color"`
	Reconnected bool   `json:"reconnected"`
}

// Join adds a player to a room, or reconnects them if the name is already on
// the roster. Joining never fails because a game is in progress.
func (g *Registry) Join(roomID, playerName string) (JoinResult, error) {
	room, err := g.Get(roomID)
	if err != nil {
		return JoinResult{}, err
	}

	room.mu.Lock()
	if p, ok := room.Players[playerName]; ok {
		p.Connected = true
		res := JoinResult{Color: p.Color, Reconnected: true}
		snap := room.snapshot()
		room.mu.Unlock()
		log.Printf("[Join] room=%s player=%s reconnected", roomID, playerName)
		g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
		return res, nil
	}

	if len(room.Players) >= MaxPlayersPerRoom {
		room.mu.Unlock()
		return JoinResult{}, ErrRoomFull
	}
	color, ok := room.freeColor()
	if !ok {
		room.mu.Unlock()
		return JoinResult{}, ErrNoColorAvailable
	}

	room.Players[playerName] = &Player{
		Name:      playerName,
		Color:     color,
		Connected: true,
		JoinedAt:  time.Now(),
	}
	room.order = append(room.order, playerName)
	snap := room.snapshot()
	room.mu.Unlock()

	log.Printf("[Join] room=%s player=%s color=%s players=%d", roomID, playerName, color, len(snap.Players))
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
	return JoinResult{Color: color}, nil
}

// SetReady flips a player's ready flag. Idempotent.
func (g *Registry) SetReady(roomID, playerName string, ready bool) error {
	room, err := g.Get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	p, ok := room.Players[playerName]
	if !ok {
		room.mu.Unlock()
		return ErrUnknownPlayer
	}
	p.Ready = ready
	snap := room.snapshot()
	room.mu.Unlock()

	log.Printf("[SetReady] room=%s player=%s ready=%v", roomID, playerName, ready)
	g.broadcaster.Broadcast(roomID, Message[any]{Type: "room_updated", Data: snap})
	return nil
}

// Snapshot returns the full room state for the query-room-state command.
func (g *Registry) Snapshot(roomID string) (RoomSnapshot, error) {
	room, err := g.Get(roomID)
	if err != nil {
		return RoomSnapshot{}, err
	}
	room.mu.Lock()
	snap := room.snapshot()
	room.mu.Unlock()
	return snap, nil
}

// StartSweeper evicts dead rooms in the background until ctx is cancelled.
// Finished rooms go after finishedRoomTTL, lobby rooms with nobody connected
// after emptyLobbyTTL. Rooms in any other phase are never evicted.
func (g *Registry) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.sweep(time.Now())
			}
		}
	}()
}

func (g *Registry) sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, room := range g.rooms {
		room.mu.Lock()
		phase := room.Phase
		evict := false
		switch phase {
		case PhaseFinished:
			evict = now.Sub(room.finishedAt) > finishedRoomTTL
		case PhaseLobby:
			evict = room.connectedCount() == 0 && now.Sub(room.createdAt) > emptyLobbyTTL
		}
		if evict {
			room.bumpGen()
		}
		room.mu.Unlock()
		if evict {
			delete(g.rooms, id)
			log.Printf("[sweep] room=%s evicted (phase=%s)", id, phase)
		}
	}
}
