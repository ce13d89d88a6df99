package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/pulsedeck/pulsedeck/internal/config"
	"github.com/pulsedeck/pulsedeck/internal/logging"
	"github.com/pulsedeck/pulsedeck/internal/notify"
	"github.com/pulsedeck/pulsedeck/internal/rest"
	"github.com/pulsedeck/pulsedeck/internal/router"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/transport"
	"github.com/pulsedeck/pulsedeck/internal/ui"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := rest.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	tc := transport.New(transport.Options{
		URL:               cfg.WSURL,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectDelayMax: cfg.ReconnectDelayMax,
	}, logger)

	connStore := store.NewConnectionStore(tc)
	endpoints := store.NewEndpointStore(api)
	incidents := store.NewIncidentStore(api)
	stats := store.NewStatsStore(api)
	subs := store.NewSubscriptionStore(tc)

	feed := notify.NewFeed(100)
	notifier := notify.Multi{feed}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = append(notifier, slack)
	}

	r := router.New(tc, endpoints, incidents, notifier, logger)
	r.Bind()
	defer r.Unbind()

	// ask for everything once the channel is up, and again on reconnect
	tc.On(transport.EventConnect, func(json.RawMessage) {
		subs.SubscribeAll()
	})

	tc.Connect()
	defer tc.Disconnect()

	if err := endpoints.Fetch(ctx, rest.ListEndpointsQuery{Limit: 100}); err != nil {
		logger.Warn("initial_fetch_failed")
	}
	_ = incidents.FetchActive(ctx)
	_ = incidents.FetchRecent(ctx, 10)
	_ = stats.FetchOverview(ctx)

	dash := ui.New(logger, endpoints, incidents, stats, connStore, subs, feed)
	if err := dash.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
