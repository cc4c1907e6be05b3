// Package history persists finished-game records and serves the leaderboard.
package history

import (
	"context"
	"time"
)

// Record is one finished game for one player.
type Record struct {
	PlayerName   string    `json:"player_name"`
	Date         time.Time `json:"date"`
	TotalScore   int       `json:"total_score"`
	NumRounds    int       `json:"num_rounds"`
	AverageScore float64   `json:"average_score"`
	Multiplayer  bool      `json:"multiplayer"`
	RoomName     string    `json:"room_name,omitempty"`
}

type Store interface {
	Append(ctx context.Context, rec Record) error
	// Top returns up to limit records sorted by total score descending.
	Top(ctx context.Context, limit int) ([]Record, error)
}
