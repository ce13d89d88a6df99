package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFeed_NewestFirstAndCapped(t *testing.T) {
	f := NewFeed(3)
	f.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	for _, title := range []string{"a", "b", "c", "d"} {
		if err := f.Notify(context.Background(), LevelInfo, title, ""); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	entries := f.Recent(0)
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	if entries[0].Title != "d" || entries[2].Title != "b" {
		t.Fatalf("order wrong: %+v", entries)
	}
	if entries[0].At.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestFeed_RecentLimitsCount(t *testing.T) {
	f := NewFeed(10)
	for i := 0; i < 5; i++ {
		f.Notify(context.Background(), LevelInfo, "x", "")
	}
	if got := len(f.Recent(2)); got != 2 {
		t.Fatalf("Recent(2) len = %d", got)
	}
	if got := len(f.Recent(99)); got != 5 {
		t.Fatalf("Recent(99) len = %d", got)
	}
}

func TestFeed_WatchCoalesces(t *testing.T) {
	f := NewFeed(10)
	f.Notify(context.Background(), LevelInfo, "a", "")
	f.Notify(context.Background(), LevelInfo, "b", "")

	select {
	case <-f.Watch():
	default:
		t.Fatal("no change signal pending")
	}
	select {
	case <-f.Watch():
		t.Fatal("signal not coalesced")
	default:
	}
}

func TestSlack_PostsErrorsAndWarnings(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	if err := s.Notify(context.Background(), LevelError, "Endpoint down", "api"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(got, "*Endpoint down*") || !strings.Contains(got, "api") {
		t.Fatalf("payload wrong: %s", got)
	}
}

func TestSlack_SkipsLowerLevels(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	if err := s.Notify(context.Background(), LevelSuccess, "Endpoint up", "api"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := s.Notify(context.Background(), LevelInfo, "Endpoint updated", "api"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if called {
		t.Fatal("webhook called for a quiet level")
	}
}

func TestSlack_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSlack(srv.URL)
	if err := s.Notify(context.Background(), LevelError, "x", "y"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSlack_EmptyWebhookDisabled(t *testing.T) {
	if s := NewSlack(""); s != nil {
		t.Fatal("expected nil for empty webhook")
	}
}

type flakyNotifier struct {
	err   error
	calls int
}

func (f *flakyNotifier) Notify(context.Context, Level, string, string) error {
	f.calls++
	return f.err
}

func TestMulti_FansOutAndKeepsFirstError(t *testing.T) {
	bad := &flakyNotifier{err: errors.New("boom")}
	worse := &flakyNotifier{err: errors.New("worse")}
	ok := &flakyNotifier{}

	m := Multi{nil, bad, worse, ok}
	err := m.Notify(context.Background(), LevelError, "t", "x")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want first error", err)
	}
	if bad.calls != 1 || worse.calls != 1 || ok.calls != 1 {
		t.Fatalf("fan-out wrong: %d/%d/%d", bad.calls, worse.calls, ok.calls)
	}
}
