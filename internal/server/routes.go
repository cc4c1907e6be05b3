package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)

	// configuration and global stats
	r.HandleFunc("/api/config", s.GetConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.UpdateConfig).Methods(http.MethodPost)
	r.HandleFunc("/api/stats", s.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard", s.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/photo/{path:.*}", s.ServePhoto).Methods(http.MethodGet)

	// solo sessions
	r.HandleFunc("/api/game/start", s.StartSoloGame).Methods(http.MethodPost)
	r.HandleFunc("/api/game/{sessionId}/photo", s.GetSessionPhoto).Methods(http.MethodGet)
	r.HandleFunc("/api/game/{sessionId}/guess", s.SubmitSessionGuess).Methods(http.MethodPost)
	r.HandleFunc("/api/game/{sessionId}/summary", s.GetSessionSummary).Methods(http.MethodGet)

	// free-run multiplayer (no shared clock)
	r.HandleFunc("/api/multiplayer/room/create", s.CreateFreeRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/multiplayer/room/{roomId}/join", s.JoinFreeRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/multiplayer/room/{roomId}/start", s.StartFreeRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/multiplayer/room/{roomId}/info", s.GetFreeRoomInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/multiplayer/room/{roomId}/photo", s.GetFreeRoomPhoto).Methods(http.MethodGet)
	r.HandleFunc("/api/multiplayer/room/{roomId}/guess", s.SubmitFreeRoomGuess).Methods(http.MethodPost)
	r.HandleFunc("/api/multiplayer/room/{roomId}/leaderboard", s.GetFreeRoomLeaderboard).Methods(http.MethodGet)

	// synchronized rooms: REST lifecycle plus the websocket command channel
	r.HandleFunc("/api/sync/room/create", s.CreateSyncRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/sync/room/{roomId}", s.GetSyncRoomState).Methods(http.MethodGet)
	r.HandleFunc("/ws/{roomId}", s.HandleWebSocket)

	// wrap the router itself: preflight OPTIONS requests match no method
	// matcher above and would otherwise bypass route-level middleware
	return s.corsMiddleware(r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// websocket upgrades skip the rest of the CORS handling
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
