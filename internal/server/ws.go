package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/geoquizz/geoquizz-backend/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket connection bound to a player in a room. The write
// mutex serializes writes because gorilla/websocket allows only one
// concurrent writer per connection.
type client struct {
	conn       *websocket.Conn
	playerName string

	writeMu sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks the live connections per room and fans events out to them. It
// satisfies game.Broadcaster so the engine never touches websockets directly.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]bool)}
}

func (h *Hub) add(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*client]bool)
	}
	h.rooms[roomID][c] = true
}

func (h *Hub) remove(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[roomID], c)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

// hasOtherConnection reports whether the player still has a live connection
// in the room besides c. Guards against a page refresh racing its own
// reconnect into a game pause.
func (h *Hub) hasOtherConnection(roomID, playerName string, c *client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for other := range h.rooms[roomID] {
		if other != c && other.playerName == playerName {
			return true
		}
	}
	return false
}

func (h *Hub) Broadcast(roomID string, msg game.Message[any]) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			log.Printf("[Broadcast] room=%s player=%s write failed: %v", roomID, c.playerName, err)
		}
	}
}

type guessPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

// HandleWebSocket upgrades the connection, joins the player into the room
// and pumps commands until the socket closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	playerName := r.URL.Query().Get("player")
	if playerName == "" {
		http.Error(w, "player query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HandleWebSocket] room=%s upgrade failed: %v", roomID, err)
		return
	}

	c := &client{conn: conn, playerName: playerName}

	join, err := s.registry.Join(roomID, playerName)
	if err != nil {
		_ = c.writeJSON(game.Message[any]{Type: "error", Data: map[string]string{"error": err.Error()}})
		conn.Close()
		return
	}
	s.hub.add(roomID, c)
	log.Printf("[HandleWebSocket] room=%s player=%s color=%s reconnected=%t", roomID, playerName, join.Color, join.Reconnected)

	// welcome the new connection with the current room state
	if snap, err := s.registry.Snapshot(roomID); err == nil {
		_ = c.writeJSON(game.Message[any]{Type: "room_updated", Data: snap})
	}

	s.readLoop(roomID, c)

	s.hub.remove(roomID, c)
	conn.Close()
	// a refresh opens the new socket before the old one closes; only a
	// player with no remaining connection counts as disconnected
	if !s.hub.hasOtherConnection(roomID, playerName, c) {
		s.registry.PlayerDisconnected(roomID, playerName)
	}
}

func (s *Server) readLoop(roomID string, c *client) {
	for {
		var msg game.Message[json.RawMessage]
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[readLoop] room=%s player=%s: %v", roomID, c.playerName, err)
			}
			return
		}
		s.handleCommand(roomID, c, msg)
	}
}

func (s *Server) handleCommand(roomID string, c *client, msg game.Message[json.RawMessage]) {
	var err error
	switch msg.Type {
	case "player_ready":
		var p readyPayload
		if jsonErr := json.Unmarshal(msg.Data, &p); jsonErr != nil {
			p.Ready = true
		}
		err = s.registry.SetReady(roomID, c.playerName, p.Ready)
	case "start_game":
		err = s.registry.Start(roomID)
	case "submit_guess":
		var p guessPayload
		if err = json.Unmarshal(msg.Data, &p); err == nil {
			err = s.registry.SubmitGuess(roomID, c.playerName, p.Latitude, p.Longitude)
		}
	case "advance_round":
		err = s.registry.Advance(roomID)
	case "room_state":
		var snap game.RoomSnapshot
		if snap, err = s.registry.Snapshot(roomID); err == nil {
			err = c.writeJSON(game.Message[any]{Type: "room_updated", Data: snap})
		}
	default:
		log.Printf("[handleCommand] room=%s player=%s unknown type %q", roomID, c.playerName, msg.Type)
		return
	}

	if err != nil {
		log.Printf("[handleCommand] room=%s player=%s type=%s: %v", roomID, c.playerName, msg.Type, err)
		_ = c.writeJSON(game.Message[any]{Type: "error", Data: map[string]string{
			"command": msg.Type,
			"error":   err.Error(),
		}})
	}
}
