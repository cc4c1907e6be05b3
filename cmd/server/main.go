package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/geoquizz/geoquizz-backend/internal/config"
	"github.com/geoquizz/geoquizz-backend/internal/game"
	"github.com/geoquizz/geoquizz-backend/internal/history"
	"github.com/geoquizz/geoquizz-backend/internal/photo"
	"github.com/geoquizz/geoquizz-backend/internal/server"
)

func main() {
	cfg := config.Load()

	library := photo.NewLibrary(cfg.PhotoDir)
	if cfg.PhotoDir != "" {
		n, err := library.Scan()
		if err != nil {
			log.Printf("[main] photo scan failed for %s: %v", cfg.PhotoDir, err)
		} else {
			log.Printf("[main] photo library ready, %d geotagged photos", n)
		}
	}

	hist := newHistoryStore(cfg)

	hub := server.NewHub()
	registry := game.NewRegistry(hub, hist, game.RoomOptions{
		GuessDuration: time.Duration(cfg.GuessSeconds) * time.Second,
		PauseDuration: time.Duration(cfg.PauseSeconds) * time.Second,
	})
	registry.StartSweeper(context.Background())
	sessions := game.NewSessions(hist)

	srv := server.New(cfg, hub, registry, sessions, library, hist)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("[main] listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.RegisterRoutes()); err != nil {
		log.Fatalf("[main] server stopped: %v", err)
	}
}

// newHistoryStore picks postgres when a DSN is configured, falling back to
// in-memory, and layers the redis leaderboard cache on top when available.
func newHistoryStore(cfg config.Config) history.Store {
	var store history.Store = history.NewMemoryStore()

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := history.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("[main] postgres unavailable, using in-memory history: %v", err)
		} else {
			store = pg
		}
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("[main] redis unavailable, skipping leaderboard cache: %v", err)
		} else {
			store = history.NewCachedStore(store, rdb)
		}
	}

	return store
}
