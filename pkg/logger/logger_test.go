package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := getLogLevel(in); got != want {
			t.Errorf("getLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, true)

	log.ErrorWithContext(context.Background(), "Sweep step failed", errors.New("db down"), map[string]interface{}{
		"booking_id": "b-1",
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Sweep step failed" || entry["error"] != "db down" || entry["booking_id"] != "b-1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, true)
	log.DebugWithContext(context.Background(), "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug written at info level: %s", buf.String())
	}

	log.WithUserID("u-1").LogClaimTransition(context.Background(), "c-1", "pending", "eligible")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["user_id"] != "u-1" || entry["to"] != "eligible" {
		t.Errorf("entry = %v", entry)
	}
}
