package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/logging"
	"github.com/pulsedeck/pulsedeck/internal/mockapi"
	"github.com/pulsedeck/pulsedeck/internal/rest"
)

func main() {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":3001"
	}
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	interval := 30 * time.Second
	if v := os.Getenv("PROBE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}

	logger, err := logging.NewLogger(logDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	repo := mockapi.NewRepo()
	hub := mockapi.NewHub(logger)
	prober := mockapi.NewProber(logger, repo, hub, interval, 4)
	api := mockapi.NewServer(logger, repo, hub, prober)

	// SEED_URLS=https://a.example,https://b.example pre-registers endpoints
	for _, raw := range strings.Split(os.Getenv("SEED_URLS"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		repo.CreateEndpoint(rest.CreateEndpointRequest{
			Name:             raw,
			URL:              raw,
			Method:           http.MethodGet,
			CheckInterval:    30,
			TimeoutThreshold: 5000,
			IsActive:         true,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go prober.Run(ctx)

	logger.Info("mockapi_listen", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
