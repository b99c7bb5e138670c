// Package config loads the server's environment-variable configuration,
// matching the teacher's envIntOrDefault/strings.TrimSpace(os.Getenv(...))
// idiom rather than pulling in a dedicated config/flags library.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StakeLadder is the fixed set of stake levels tables are preset for.
var StakeLadder = []int64{1, 5, 10, 20, 50, 100}

// TablesPerStake is the number of preset tables created at boot for each
// stake level in StakeLadder.
const TablesPerStake = 2

// Config holds every environment-derived setting the server needs.
type Config struct {
	DatabaseURL        string
	SessionSecret      string
	TokenSecret        string
	CORSOrigins        []string
	PingInterval       time.Duration
	CleanupInterval    time.Duration
	MatchmakerInterval time.Duration
	RedisAddr          string
	LedgerDriver       string
	ServerAddr         string
}

// FromEnv reads every setting from its environment variable, falling back
// to sane defaults when unset.
func FromEnv() Config {
	return Config{
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionSecret:      strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		TokenSecret:        strings.TrimSpace(os.Getenv("TOKEN_SECRET")),
		CORSOrigins:        splitOrigins(os.Getenv("CORS_ORIGINS")),
		PingInterval:       envDurationOrDefault("PING_INTERVAL", 30*time.Second),
		CleanupInterval:    envDurationOrDefault("CLEANUP_INTERVAL", 5*time.Minute),
		MatchmakerInterval: envDurationOrDefault("MATCHMAKER_INTERVAL", 10*time.Second),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		LedgerDriver:       strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_DRIVER"))),
		ServerAddr:         envStringOrDefault("SERVER_ADDR", ":18080"),
	}
}

func splitOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func envStringOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	secs := envIntOrDefault(key, -1)
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
