package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/geoquizz/geoquizz-backend/internal/config"
	"github.com/geoquizz/geoquizz-backend/internal/game"
	"github.com/geoquizz/geoquizz-backend/internal/history"
	"github.com/geoquizz/geoquizz-backend/internal/photo"
)

type Server struct {
	cfg      config.Config
	registry *game.Registry
	sessions *game.Sessions
	history  history.Store
	hub      *Hub

	// photoMu guards swaps of the photo library when /api/config rescans
	// a different folder.
	photoMu sync.RWMutex
	photos  photo.Provider
}

func New(cfg config.Config, hub *Hub, registry *game.Registry, sessions *game.Sessions, photos photo.Provider, hist history.Store) *Server {
	return &Server{
		cfg:      cfg,
		hub:      hub,
		registry: registry,
		sessions: sessions,
		photos:   photos,
		history:  hist,
	}
}

func (s *Server) library() photo.Provider {
	s.photoMu.RLock()
	defer s.photoMu.RUnlock()
	return s.photos
}

// numRounds reads the configured round count; photoMu also guards cfg
// updates arriving through the config endpoint.
func (s *Server) numRounds() int {
	s.photoMu.RLock()
	defer s.photoMu.RUnlock()
	return s.cfg.NumRounds
}

// randomPhotos pulls count photos from the library in the engine's type.
func (s *Server) randomPhotos(count int) []game.Photo {
	picked := s.library().RandomPhotos(count)
	out := make([]game.Photo, 0, len(picked))
	for _, p := range picked {
		out = append(out, game.Photo{Path: p.Path, Latitude: p.Latitude, Longitude: p.Longitude})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[writeJSON] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound),
		errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrNoColorAvailable),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrAlreadySubmitted),
		errors.Is(err, game.ErrNotEnoughReadyPlayers):
		return http.StatusConflict
	case errors.Is(err, game.ErrNoPhotos):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
