package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the service reads from the environment. Load is
// called once at startup, after godotenv has had a chance to populate the
// environment from a .env file.
type Config struct {
	Env  string
	Port string

	// Storage selects the backing store: "redis" or "memory".
	Storage   string
	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// StartingBalance is the credit granted to a brand-new account, in cents.
	StartingBalance int64
	// DefaultRiskFactor seeds new accounts' bankroll-protection setting.
	DefaultRiskFactor float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		Storage:           getEnv("STORAGE", "redis"),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:         getEnv("REDIS_PASSWORD", ""),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		StartingBalance:   10000,
		DefaultRiskFactor: 0.5,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := os.Getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	if raw := os.Getenv("STARTING_BALANCE"); raw != "" {
		balance, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || balance < 0 {
			return nil, fmt.Errorf("invalid STARTING_BALANCE %q", raw)
		}
		cfg.StartingBalance = balance
	}

	if raw := os.Getenv("DEFAULT_RISK_FACTOR"); raw != "" {
		risk, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_RISK_FACTOR %q: %w", raw, err)
		}
		cfg.DefaultRiskFactor = risk
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
