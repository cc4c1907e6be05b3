package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/geoquizz/geoquizz-backend/internal/photo"
)

func (s *Server) GetConfig(w http.ResponseWriter, _ *http.Request) {
	s.photoMu.RLock()
	lib := s.photos
	rounds := s.cfg.NumRounds
	s.photoMu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"photo_folder":     lib.Root(),
		"num_photos_found": lib.Count(),
		"num_rounds":       rounds,
	})
}

// UpdateConfig points the server at a different photo folder and rescans it.
func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoFolder string `json:"photo_folder"`
		NumRounds   int    `json:"num_rounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhotoFolder == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo_folder is required"})
		return
	}
	if info, err := os.Stat(req.PhotoFolder); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo folder does not exist"})
		return
	}

	lib := photo.NewLibrary(req.PhotoFolder)
	n, err := lib.Scan()
	if err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no photos with GPS coordinates found"})
		return
	}

	s.photoMu.Lock()
	s.photos = lib
	if req.NumRounds > 0 {
		s.cfg.NumRounds = req.NumRounds
	}
	s.photoMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"num_photos": n,
	})
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	best, err := s.history.Top(r.Context(), 1)
	if err != nil {
		writeError(w, err)
		return
	}
	stats := map[string]any{
		"total_photos": s.library().Count(),
		"photo_folder": s.library().Root(),
		"best_score":   0,
		"best_player":  "",
	}
	if len(best) > 0 {
		stats["best_score"] = best[0].TotalScore
		stats["best_player"] = best[0].PlayerName
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	top, err := s.history.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// ServePhoto streams a scanned photo off disk. Only paths inside the scanned
// library are served, so a crafted path cannot read arbitrary files.
func (s *Server) ServePhoto(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if !s.library().Contains(path) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "photo not found"})
		return
	}
	http.ServeFile(w, r, path)
}

// ---- solo sessions ----

func (s *Server) StartSoloGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"player_name"`
		NumRounds  int    `json:"num_rounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PlayerName == "" {
		req.PlayerName = "Player"
	}
	if req.NumRounds < 1 {
		req.NumRounds = s.numRounds()
	}

	photos := s.randomPhotos(req.NumRounds)
	sessionID, err := s.sessions.CreateSession(req.PlayerName, photos, req.NumRounds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sessionID,
		"num_rounds": req.NumRounds,
	})
}

func (s *Server) GetSessionPhoto(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.CurrentPhoto(mux.Vars(r)["sessionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) SubmitSessionGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude and longitude are required"})
		return
	}
	result, err := s.sessions.SubmitGuess(mux.Vars(r)["sessionId"], *req.Latitude, *req.Longitude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) GetSessionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sessions.Summary(mux.Vars(r)["sessionId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ---- free-run multiplayer ----

func (s *Server) CreateFreeRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomName  string `json:"room_name"`
		HostName  string `json:"host_name"`
		NumRounds int    `json:"num_rounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.RoomName == "" {
		req.RoomName = "Room"
	}
	if req.HostName == "" {
		req.HostName = "Host"
	}
	if req.NumRounds < 1 {
		req.NumRounds = s.numRounds()
	}

	roomID, err := s.sessions.CreateFreeRoom(req.RoomName, req.HostName, s.randomPhotos(req.NumRounds), req.NumRounds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"room_id":   roomID,
		"room_name": req.RoomName,
	})
}

func (s *Server) JoinFreeRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"player_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player_name is required"})
		return
	}
	roomID := mux.Vars(r)["roomId"]
	if err := s.sessions.JoinFreeRoom(roomID, req.PlayerName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"room_id":     roomID,
		"player_name": req.PlayerName,
	})
}

func (s *Server) StartFreeRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.StartFreeRoom(mux.Vars(r)["roomId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) GetFreeRoomInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.FreeRoomInfo(mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) GetFreeRoomPhoto(w http.ResponseWriter, r *http.Request) {
	playerName := r.URL.Query().Get("player_name")
	if playerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player_name is required"})
		return
	}
	view, err := s.sessions.FreeRoomPhoto(mux.Vars(r)["roomId"], playerName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) SubmitFreeRoomGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string   `json:"player_name"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.PlayerName == "" || req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "player_name, latitude and longitude are required"})
		return
	}
	result, err := s.sessions.SubmitFreeGuess(mux.Vars(r)["roomId"], req.PlayerName, *req.Latitude, *req.Longitude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) GetFreeRoomLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.sessions.FreeRoomLeaderboard(mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// ---- synchronized rooms ----

func (s *Server) CreateSyncRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomName  string `json:"room_name"`
		HostName  string `json:"host_name"`
		NumRounds int    `json:"num_rounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "host_name is required"})
		return
	}
	if req.RoomName == "" {
		req.RoomName = "Room"
	}
	if req.NumRounds < 1 {
		req.NumRounds = s.numRounds()
	}

	roomID, err := s.registry.CreateRoom(req.RoomName, req.HostName, s.randomPhotos(req.NumRounds), req.NumRounds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"room_id":   roomID,
		"room_name": req.RoomName,
	})
}

func (s *Server) GetSyncRoomState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.registry.Snapshot(mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
