package config

import (
	"testing"
	"time"
)

func TestFromEnv_ParsesAndDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.test/api")
	t.Setenv("WS_URL", "ws://api.test/ws")
	t.Setenv("LOG_DIR", "./_testlogs")
	t.Setenv("HTTP_TIMEOUT_MS", "1234")
	t.Setenv("RECONNECT_ATTEMPTS", "7")
	t.Setenv("RECONNECT_DELAY_MS", "250")
	t.Setenv("RECONNECT_DELAY_MAX_MS", "4000")

	cfg := FromEnv()

	if cfg.APIBaseURL != "http://api.test/api" || cfg.WSURL != "ws://api.test/ws" {
		t.Fatalf("urls wrong: %+v", cfg)
	}
	if cfg.LogDir != "./_testlogs" {
		t.Fatalf("logdir wrong: %+v", cfg)
	}
	if cfg.HTTPTimeout != 1234*time.Millisecond {
		t.Fatalf("timeout wrong: %v", cfg.HTTPTimeout)
	}
	if cfg.ReconnectAttempts != 7 || cfg.ReconnectDelay != 250*time.Millisecond || cfg.ReconnectDelayMax != 4*time.Second {
		t.Fatalf("reconnect tuning wrong: %+v", cfg)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("WS_URL", "")
	t.Setenv("HTTP_TIMEOUT_MS", "")
	t.Setenv("RECONNECT_ATTEMPTS", "")

	cfg := FromEnv()
	if cfg.APIBaseURL != "http://localhost:3001/api" {
		t.Fatalf("default api base wrong: %q", cfg.APIBaseURL)
	}
	if cfg.WSURL != "ws://localhost:3001/ws" {
		t.Fatalf("default ws url wrong: %q", cfg.WSURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("default timeout wrong: %v", cfg.HTTPTimeout)
	}
	if cfg.ReconnectAttempts != 5 {
		t.Fatalf("default attempts wrong: %d", cfg.ReconnectAttempts)
	}

	// invalid numeric values fall back to defaults
	t.Setenv("HTTP_TIMEOUT_MS", "not-a-number")
	cfg = FromEnv()
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("invalid timeout should keep default, got %v", cfg.HTTPTimeout)
	}
}
