package notify

import (
	"context"
	"sync"
	"time"
)

const defaultFeedCap = 100

// Entry is one transient notification shown by the UI.
type Entry struct {
	Level Level
	Title string
	Text  string
	At    time.Time
}

// Feed is the in-memory notification feed the dashboard renders. Newest
// first, capped; no persistence.
type Feed struct {
	mu      sync.RWMutex
	entries []Entry
	cap     int
	changed chan struct{}
	now     func() time.Time
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultFeedCap
	}
	return &Feed{cap: capacity, changed: make(chan struct{}, 1), now: time.Now}
}

func (f *Feed) Notify(_ context.Context, level Level, title, text string) error {
	f.mu.Lock()
	f.entries = append([]Entry{{Level: level, Title: title, Text: text, At: f.now()}}, f.entries...)
	if len(f.entries) > f.cap {
		f.entries = f.entries[:f.cap]
	}
	f.mu.Unlock()
	select {
	case f.changed <- struct{}{}:
	default:
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (f *Feed) Recent(n int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n <= 0 || n > len(f.entries) {
		n = len(f.entries)
	}
	return append([]Entry(nil), f.entries[:n]...)
}

func (f *Feed) Watch() <-chan struct{} { return f.changed }
