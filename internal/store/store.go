// Package store holds the client-side mirrors of server state. Each store
// owns one slice of that state: REST-backed methods mutate it imperatively,
// event-application methods splice pushed payloads into it. Stores are
// constructed once at startup and injected; Reset exists for tests.
package store

// status is the loading flag and last-error slot every store carries.
// Guarded by the owning store's mutex.
type status struct {
	loading bool
	lastErr string
}

func (s *status) begin() {
	s.loading = true
	s.lastErr = ""
}

func (s *status) finish(err error) {
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
	}
}

// signal coalesces change notifications for UI consumers. A full channel
// means a render is already pending; dropping the extra tick is fine.
type signal struct {
	ch chan struct{}
}

func newSignal() signal {
	return signal{ch: make(chan struct{}, 1)}
}

func (s signal) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
