// deckctl is the scripting companion to the dashboard: list and manage
// endpoints, resolve incidents, or tail the push channel from a shell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/config"
	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/rest"
	"github.com/pulsedeck/pulsedeck/internal/transport"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := zap.NewNop()
	api := rest.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "list":
		err = list(ctx, api)
	case "add":
		err = add(ctx, api, os.Args[2:])
	case "delete":
		err = requireID(os.Args[2:], func(id string) error {
			return api.DeleteEndpoint(ctx, domain.EndpointID(id))
		})
	case "check":
		err = requireID(os.Args[2:], func(id string) error {
			out, cerr := api.RunCheck(ctx, domain.EndpointID(id))
			if cerr != nil {
				return cerr
			}
			fmt.Printf("%s  %.0f ms  http=%d  %s\n", out.Status, out.ResponseTime, out.StatusCode, out.Message)
			return nil
		})
	case "incidents":
		err = listIncidents(ctx, api)
	case "stats":
		err = showStats(ctx, api)
	case "resolve":
		err = requireID(os.Args[2:], func(id string) error {
			in, rerr := api.ResolveIncident(ctx, id)
			if rerr != nil {
				return rerr
			}
			fmt.Printf("resolved %s (%s)\n", in.ID, in.EndpointName)
			return nil
		})
	case "watch":
		err = watch(cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: deckctl <command>

  list                     list endpoints
  add -name N -url U ...   register an endpoint
  delete <id>              remove an endpoint
  check <id>               trigger a manual check
  incidents                list active incidents
  resolve <id>             resolve an incident
  stats                    show the monitoring overview
  watch                    tail the push channel`)
}

func requireID(args []string, fn func(string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("missing id argument")
	}
	return fn(args[0])
}

func list(ctx context.Context, api *rest.Client) error {
	page, err := api.ListEndpoints(ctx, rest.ListEndpointsQuery{Limit: 100})
	if err != nil {
		return err
	}
	for _, ep := range page.Data {
		rt := "-"
		if ep.LastResponseTime != nil {
			rt = fmt.Sprintf("%.0f ms", *ep.LastResponseTime)
		}
		fmt.Printf("%-12s %-9s %-8s %-20s %s\n", ep.ID, ep.CurrentStatus, rt, ep.Name, ep.URL)
	}
	fmt.Printf("total: %d\n", page.Meta.Total)
	return nil
}

func add(ctx context.Context, api *rest.Client, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	url := fs.String("url", "", "target URL")
	method := fs.String("method", "GET", "HTTP method")
	interval := fs.Int("interval", 60, "check interval seconds")
	timeout := fs.Int("timeout", 5000, "timeout threshold ms")
	expected := fs.Int("expected", 0, "expected status code (0 = any 2xx/3xx)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := rest.CreateEndpointRequest{
		Name:               *name,
		URL:                *url,
		Method:             *method,
		CheckInterval:      *interval,
		TimeoutThreshold:   *timeout,
		ExpectedStatusCode: *expected,
		IsActive:           true,
	}
	if errs := req.Validate(); errs != nil {
		for field, msg := range errs {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		return fmt.Errorf("validation failed")
	}
	ep, err := api.CreateEndpoint(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", ep.ID)
	return nil
}

func listIncidents(ctx context.Context, api *rest.Client) error {
	active, err := api.ActiveIncidents(ctx)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Println("no active incidents")
		return nil
	}
	for _, in := range active {
		fmt.Printf("%-12s %-20s since %s  failures=%d  %s\n",
			in.ID, in.EndpointName, in.StartedAt.Format("15:04:05"), in.FailureCount, in.ErrorMessage)
	}
	return nil
}

func showStats(ctx context.Context, api *rest.Client) error {
	ov, err := api.Overview(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("endpoints: %d total, %d active (%d up / %d down / %d degraded)\n",
		ov.TotalEndpoints, ov.ActiveEndpoints, ov.EndpointsUp, ov.EndpointsDown, ov.EndpointsDegraded)
	fmt.Printf("last 24h:  %d checks, %.1f%% uptime, %.0f ms avg response\n",
		ov.ChecksLast24h, ov.OverallUptime, ov.AvgResponseTime)

	ist, err := api.IncidentStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("incidents: %d total, %d active, %d resolved in 24h, MTTR %.1f min\n",
		ist.Total, ist.Active, ist.ResolvedLast, ist.MTTRMinutes)
	return nil
}

func watch(cfg config.Config, logger *zap.Logger) error {
	tc := transport.New(transport.Options{
		URL:               cfg.WSURL,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		ReconnectDelayMax: cfg.ReconnectDelayMax,
	}, logger)

	events := []string{
		domain.EvStatusChanged, domain.EvIncidentStarted, domain.EvIncidentResolve,
		domain.EvCheckCompleted, domain.EvEndpointCreated, domain.EvEndpointUpdated,
		domain.EvEndpointDeleted,
	}
	for _, ev := range events {
		name := ev
		tc.On(name, func(payload json.RawMessage) {
			fmt.Printf("%s %s\n", name, string(payload))
		})
	}
	tc.On(transport.EventConnect, func(json.RawMessage) {
		fmt.Println("connected")
		tc.Emit(domain.EvSubscribeAll, struct{}{})
	})
	tc.On(transport.EventDisconnect, func(json.RawMessage) { fmt.Println("disconnected") })
	tc.On(transport.EventReconnectFailed, func(json.RawMessage) { fmt.Println("reconnect failed, giving up") })

	tc.Connect()
	defer tc.Disconnect()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}
