package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_history (
	id            BIGSERIAL PRIMARY KEY,
	player_name   TEXT NOT NULL,
	played_at     TIMESTAMPTZ NOT NULL,
	total_score   INT NOT NULL,
	num_rounds    INT NOT NULL,
	average_score DOUBLE PRECISION NOT NULL,
	multiplayer   BOOLEAN NOT NULL DEFAULT FALSE,
	room_name     TEXT NOT NULL DEFAULT ''
)`

// PostgresStore persists records in a game_history table via pgxpool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create game_history table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_history
			(player_name, played_at, total_score, num_rounds, average_score, multiplayer, room_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.PlayerName, rec.Date, rec.TotalScore, rec.NumRounds,
		rec.AverageScore, rec.Multiplayer, rec.RoomName,
	)
	if err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT player_name, played_at, total_score, num_rounds, average_score, multiplayer, room_name
		 FROM game_history
		 ORDER BY total_score DESC, played_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.PlayerName, &rec.Date, &rec.TotalScore,
			&rec.NumRounds, &rec.AverageScore, &rec.Multiplayer, &rec.RoomName); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
