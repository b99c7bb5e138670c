package config

import (
	"os"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PING_INTERVAL", "CLEANUP_INTERVAL", "MATCHMAKER_INTERVAL", "CORS_ORIGINS", "SERVER_ADDR"} {
		os.Unsetenv(k)
	}
	cfg := FromEnv()
	if cfg.PingInterval != 30*time.Second {
		t.Fatalf("expected default ping interval 30s, got %v", cfg.PingInterval)
	}
	if cfg.MatchmakerInterval != 10*time.Second {
		t.Fatalf("expected default matchmaker interval 10s, got %v", cfg.MatchmakerInterval)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("expected default CORS origin wildcard, got %v", cfg.CORSOrigins)
	}
	if cfg.ServerAddr != ":18080" {
		t.Fatalf("expected default server addr :18080, got %s", cfg.ServerAddr)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	os.Setenv("MATCHMAKER_INTERVAL", "5")
	os.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	defer os.Unsetenv("MATCHMAKER_INTERVAL")
	defer os.Unsetenv("CORS_ORIGINS")

	cfg := FromEnv()
	if cfg.MatchmakerInterval != 5*time.Second {
		t.Fatalf("expected overridden matchmaker interval 5s, got %v", cfg.MatchmakerInterval)
	}
	want := []string{"https://a.test", "https://b.test"}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != want[0] || cfg.CORSOrigins[1] != want[1] {
		t.Fatalf("expected parsed CORS origins %v, got %v", want, cfg.CORSOrigins)
	}
}

func TestStakeLadderMatchesSpecOrder(t *testing.T) {
	want := []int64{1, 5, 10, 20, 50, 100}
	if len(StakeLadder) != len(want) {
		t.Fatalf("expected %d stake levels, got %d", len(want), len(StakeLadder))
	}
	for i := range want {
		if StakeLadder[i] != want[i] {
			t.Fatalf("stake ladder mismatch at %d: got %d want %d", i, StakeLadder[i], want[i])
		}
	}
}
