package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL        string        // REST base, e.g. http://localhost:3001/api
	WSURL             string        // push channel, e.g. ws://localhost:3001/ws
	LogDir            string        // logs directory
	HTTPTimeout       time.Duration // per-request REST timeout
	ReconnectAttempts int           // reconnect tries before giving up
	ReconnectDelay    time.Duration // first reconnect delay
	ReconnectDelayMax time.Duration // backoff cap
	SlackWebhook      string        // optional incident fan-out
}

func FromEnv() Config {
	api := os.Getenv("API_BASE_URL")
	if api == "" {
		api = "http://localhost:3001/api"
	}

	ws := os.Getenv("WS_URL")
	if ws == "" {
		ws = "ws://localhost:3001/ws"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	httpTimeout := 10 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			httpTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	attempts := 5
	if v := os.Getenv("RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			attempts = n
		}
	}

	delay := time.Second
	if v := os.Getenv("RECONNECT_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			delay = time.Duration(ms) * time.Millisecond
		}
	}

	delayMax := 5 * time.Second
	if v := os.Getenv("RECONNECT_DELAY_MAX_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			delayMax = time.Duration(ms) * time.Millisecond
		}
	}

	return Config{
		APIBaseURL:        api,
		WSURL:             ws,
		LogDir:            logDir,
		HTTPTimeout:       httpTimeout,
		ReconnectAttempts: attempts,
		ReconnectDelay:    delay,
		ReconnectDelayMax: delayMax,
		SlackWebhook:      os.Getenv("SLACK_WEBHOOK"),
	}
}
