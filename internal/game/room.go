package game

import (
	"context"
	"sync"
	"time"
)

// ColorPalette is the fixed set of marker colors a room can hand out. Its
// length is also the roster cap.
var ColorPalette = [...]string{"red", "blue", "green", "yellow", "purple", "orange"}

const MaxPlayersPerRoom = len(ColorPalette)

// Photo is one round's target: an image path plus the true coordinates.
// The coordinates never leave the engine before the round resolves.
type Photo struct {
	Path      string  `json:"path"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Guess is a player's submitted map click for the current round only.
type Guess struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Player struct {
	Name      string
	Color     string
	Ready     bool
	Connected bool
	IsHost    bool

	// Phase-scoped: meaningful only during/after a guessing phase, reset
	// on every guessing entry.
	Guess     *Guess
	Submitted bool

	Scores     []int
	TotalScore int
	JoinedAt   time.Time
}

// RoomOptions fixes a room's timing knobs at creation. Zero values fall back
// to the defaults; tests compress TickInterval to run rounds in milliseconds.
type RoomOptions struct {
	CountdownDuration time.Duration
	GuessDuration     time.Duration
	BetweenDuration   time.Duration
	PauseDuration     time.Duration
	TickInterval      time.Duration
}

func (o RoomOptions) withDefaults() RoomOptions {
	if o.CountdownDuration <= 0 {
		o.CountdownDuration = 3 * time.Second
	}
	if o.GuessDuration <= 0 {
		o.GuessDuration = 60 * time.Second
	}
	if o.BetweenDuration <= 0 {
		o.BetweenDuration = 5 * time.Second
	}
	if o.PauseDuration <= 0 {
		o.PauseDuration = 30 * time.Second
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	return o
}

type Room struct {
	ID       string
	Name     string
	HostName string

	NumRounds    int
	CurrentRound int
	Phase        Phase
	Photos       []Photo

	// RoundStartTime marks the start of the current guessing phase and is
	// the anchor for remaining-time math across a pause.
	RoundStartTime time.Time

	Players map[string]*Player
	order   []string // join order, used for stable result ties

	opts RoomOptions

	// pause bookkeeping; valid only while Phase == PhasePaused
	pausedBy      string
	pauseDeadline time.Time

	createdAt  time.Time
	finishedAt time.Time

	// mu serializes every read-modify-write on this room, whether it comes
	// from a command handler or a timer task. Rooms never share locks.
	mu sync.Mutex

	// timerGen increments on every phase transition; a timer task that
	// captured an older generation must exit without effect.
	timerGen    uint64
	timerCancel context.CancelFunc
}

// helpers below assume r.mu is held by the caller.

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (r *Room) readyConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected && p.Ready {
			n++
		}
	}
	return n
}

func (r *Room) freeColor() (string, bool) {
	taken := make(map[string]bool, len(r.Players))
	for _, p := range r.Players {
		taken[p.Color] = true
	}
	for _, c := range ColorPalette {
		if !taken[c] {
			return c, true
		}
	}
	return "", false
}

func (r *Room) resetGuesses() {
	for _, p := range r.Players {
		p.Guess = nil
		p.Submitted = false
	}
}

func (r *Room) allConnectedSubmitted() bool {
	any := false
	for _, p := range r.Players {
		if !p.Connected {
			continue
		}
		any = true
		if !p.Submitted {
			return false
		}
	}
	return any
}

// bumpGen invalidates every timer task spawned for previous phase instances
// and cancels the live one so it stops ticking promptly.
func (r *Room) bumpGen() uint64 {
	r.timerGen++
	if r.timerCancel != nil {
		r.timerCancel()
		r.timerCancel = nil
	}
	return r.timerGen
}

// PlayerSnapshot is the per-player slice of a room state query. It never
// carries the current guess coordinates.
type PlayerSnapshot struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Ready      bool   `json:"ready"`
	Connected  bool   `json:"connected"`
	IsHost     bool   `json:"is_host"`
	Submitted  bool   `json:"submitted"`
	Scores     []int  `json:"scores"`
	TotalScore int    `json:"total_score"`
}

type RoomSnapshot struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	HostName     string           `json:"host_name"`
	Phase        Phase            `json:"phase"`
	CurrentRound int              `json:"current_round"`
	NumRounds    int              `json:"num_rounds"`
	Players      []PlayerSnapshot `json:"players"`
}

// snapshot assumes r.mu is held.
func (r *Room) snapshot() RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, name := range r.order {
		p := r.Players[name]
		scores := append([]int(nil), p.Scores...)
		players = append(players, PlayerSnapshot{
			Name:       p.Name,
			Color:      p.Color,
			Ready:      p.Ready,
			Connected:  p.Connected,
			IsHost:     p.IsHost,
			Submitted:  p.Submitted,
			Scores:     scores,
			TotalScore: p.TotalScore,
		})
	}
	return RoomSnapshot{
		ID:           r.ID,
		Name:         r.Name,
		HostName:     r.HostName,
		Phase:        r.Phase,
		CurrentRound: r.CurrentRound,
		NumRounds:    r.NumRounds,
		Players:      players,
	}
}
