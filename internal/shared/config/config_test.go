package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsAreValid(t *testing.T) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if cfg.Pipeline.DeadlineMonths != 3 || cfg.Pipeline.ClaimWindow != 24*time.Hour {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if !strings.Contains(cfg.Database.DSN, "dbname=autoclaim") {
		t.Errorf("dsn = %s", cfg.Database.DSN)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("ADMIN_EMAILS", " ops@autoclaim.app, ,audit@autoclaim.app ")
	t.Setenv("JWT_EXPIRES_IN", "60")
	t.Setenv("PIPELINE_SWEEP_INTERVAL", "90s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("redis addr = %s", cfg.Redis.Addr)
	}
	if len(cfg.JWT.AdminEmails) != 2 || cfg.JWT.AdminEmails[1] != "audit@autoclaim.app" {
		t.Errorf("admins = %q", cfg.JWT.AdminEmails)
	}
	if cfg.JWT.JWTExpiresIn != time.Minute || cfg.Pipeline.SweepInterval != 90*time.Second {
		t.Errorf("durations = %v %v", cfg.JWT.JWTExpiresIn, cfg.Pipeline.SweepInterval)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("malformed int should fall back, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Load()
	cfg.JWT.Secret = ""
	cfg.Pipeline.EURToGBPRate = 0
	cfg.Pipeline.PayoutCurrency = "usd"
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"JWT_SECRET", "PIPELINE_EUR_TO_GBP_RATE", "PIPELINE_PAYOUT_CURRENCY", "KAFKA_BROKERS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %s in %v", want, err)
		}
	}
}
