// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseDSN string
	PoolSize    int
	BestOf      int
	BanBudget   int
}

// Load reads the environment. A missing .env is fine; explicit env vars win.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:        getString("ADDR", ":8080"),
		DatabaseDSN: getString("DATABASE_DSN", ""),
		PoolSize:    getInt("SONG_POOL_SIZE", 5),
		BestOf:      getInt("MATCH_BEST_OF", 3),
		BanBudget:   getInt("BAN_BUDGET", 2),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
