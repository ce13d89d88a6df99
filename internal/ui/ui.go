// Package ui renders the dashboard: endpoint list with live status, active
// incidents, the notification feed and the push-channel connection state.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/pulsedeck/pulsedeck/internal/domain"
	"github.com/pulsedeck/pulsedeck/internal/notify"
	"github.com/pulsedeck/pulsedeck/internal/rest"
	"github.com/pulsedeck/pulsedeck/internal/store"
)

const refreshInterval = 500 * time.Millisecond

type UI struct {
	log         *zap.Logger
	endpoints   *store.EndpointStore
	incidents   *store.IncidentStore
	stats       *store.StatsStore
	connection  *store.ConnectionStore
	subs        *store.SubscriptionStore
	feed        *notify.Feed
	selectedRow int
}

func New(log *zap.Logger, eps *store.EndpointStore, inc *store.IncidentStore, stats *store.StatsStore, conn *store.ConnectionStore, subs *store.SubscriptionStore, feed *notify.Feed) *UI {
	return &UI{
		log:        log,
		endpoints:  eps,
		incidents:  inc,
		stats:      stats,
		connection: conn,
		subs:       subs,
		feed:       feed,
	}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	u.render(screen)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if done := u.handleKey(ctx, ev); done {
					return context.Canceled
				}
				u.render(screen)
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen)
		}
	}
}

func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	eps := u.endpoints.Endpoints()
	switch {
	case ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		return true
	case ev.Key() == tcell.KeyUp:
		if u.selectedRow > 0 {
			u.selectedRow--
		}
	case ev.Key() == tcell.KeyDown:
		if u.selectedRow < len(eps)-1 {
			u.selectedRow++
		}
	case ev.Key() == tcell.KeyEnter:
		if u.selectedRow < len(eps) {
			id := eps[u.selectedRow].ID
			u.subs.Subscribe(id)
			go func() {
				_ = u.endpoints.FetchOne(ctx, id)
				_ = u.endpoints.FetchCheckResults(ctx, id, 50)
			}()
		}
	case ev.Rune() == 'c':
		if u.selectedRow < len(eps) {
			id := eps[u.selectedRow].ID
			go func() {
				if _, err := u.endpoints.Check(ctx, id); err != nil {
					_ = u.feed.Notify(ctx, notify.LevelError, "Check failed", err.Error())
				}
			}()
		}
	case ev.Rune() == 'r':
		go func() {
			if err := u.endpoints.Fetch(ctx, rest.ListEndpointsQuery{Limit: 100}); err != nil {
				_ = u.feed.Notify(ctx, notify.LevelError, "Refresh failed", err.Error())
			}
			_ = u.incidents.FetchActive(ctx)
			_ = u.stats.FetchOverview(ctx)
		}()
	}
	return false
}

func (u *UI) render(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < 6 {
		screen.Show()
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	header := fmt.Sprintf(" pulsedeck  %s  [%s]  (q quit, r refresh, c check, enter select)",
		now, u.connection.State())
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))
	drawText(screen, width-14, 0, 14, connLabel(u.connection.State()), connStyle(u.connection.State()))

	ov := u.stats.Overview()
	summary := fmt.Sprintf(" up %d  down %d  degraded %d  incidents %d  uptime %.1f%%  avg %.0f ms",
		ov.EndpointsUp, ov.EndpointsDown, ov.EndpointsDegraded, ov.ActiveIncidents, ov.OverallUptime, ov.AvgResponseTime)
	drawText(screen, 0, 1, width, summary, tcell.StyleDefault)

	y := 3
	y = u.renderEndpoints(screen, width, height, y)
	y = u.renderIncidents(screen, width, height, y)
	u.renderFeed(screen, width, height, y)

	screen.Show()
}

func (u *UI) renderEndpoints(screen tcell.Screen, width, height, y int) int {
	eps := u.endpoints.Endpoints()
	drawText(screen, 0, y, width, fmt.Sprintf(" ENDPOINTS (%d)", u.endpoints.Total()), tcell.StyleDefault.Bold(true))
	y++
	if u.selectedRow >= len(eps) {
		u.selectedRow = 0
	}
	for i, ep := range eps {
		if y >= height-2 {
			break
		}
		line := fmt.Sprintf(" %-20s %-34s %-9s %s",
			clip(ep.Name, 20), clip(ep.URL, 34), ep.CurrentStatus, respTime(ep))
		style := statusStyle(ep.CurrentStatus)
		if i == u.selectedRow {
			style = style.Reverse(true)
		}
		drawText(screen, 0, y, width, line, style)
		y++
	}
	return y + 1
}

func (u *UI) renderIncidents(screen tcell.Screen, width, height, y int) int {
	active := u.incidents.Active()
	if y >= height-2 {
		return y
	}
	drawText(screen, 0, y, width, fmt.Sprintf(" ACTIVE INCIDENTS (%d)", len(active)), tcell.StyleDefault.Bold(true))
	y++
	for _, in := range active {
		if y >= height-2 {
			break
		}
		line := fmt.Sprintf(" %-20s since %s  failures=%d  %s",
			clip(in.EndpointName, 20), in.StartedAt.Format("15:04:05"), in.FailureCount, clip(in.ErrorMessage, 40))
		drawText(screen, 0, y, width, line, tcell.StyleDefault.Foreground(tcell.ColorRed))
		y++
	}
	return y + 1
}

func (u *UI) renderFeed(screen tcell.Screen, width, height, y int) {
	for _, e := range u.feed.Recent(3) {
		if y >= height {
			break
		}
		line := fmt.Sprintf(" %s %s: %s", e.At.Format("15:04:05"), e.Title, e.Text)
		drawText(screen, 0, y, width, line, levelStyle(e.Level))
		y++
	}
}

func statusStyle(st domain.Status) tcell.Style {
	switch st {
	case domain.StatusUp:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case domain.StatusDown:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case domain.StatusDegraded:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
}

func levelStyle(l notify.Level) tcell.Style {
	switch l {
	case notify.LevelError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case notify.LevelWarning:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case notify.LevelSuccess:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	default:
		return tcell.StyleDefault
	}
}

func connLabel(st domain.ConnectionState) string {
	return "● " + string(st)
}

func connStyle(st domain.ConnectionState) tcell.Style {
	switch st {
	case domain.Connected:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case domain.Connecting:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
}

func respTime(ep domain.Endpoint) string {
	if ep.LastResponseTime == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f ms", *ep.LastResponseTime)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}
