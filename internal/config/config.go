// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	PhotoDir string

	// DatabaseURL empty -> in-memory history store.
	DatabaseURL string
	// RedisAddr empty -> no leaderboard cache.
	RedisAddr string

	NumRounds    int
	GuessSeconds int
	PauseSeconds int
}

func Load() Config {
	// missing .env is fine; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] loading .env: %v", err)
	}

	return Config{
		Port:         envInt("PORT", 8080),
		PhotoDir:     os.Getenv("PHOTO_DIR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		NumRounds:    envInt("NUM_ROUNDS", 5),
		GuessSeconds: envInt("GUESS_SECONDS", 60),
		PauseSeconds: envInt("PAUSE_SECONDS", 30),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %d", key, raw, fallback)
		return fallback
	}
	return n
}
