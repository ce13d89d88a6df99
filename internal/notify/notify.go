package notify

import "context"

// Level classifies a transient notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier fans a classified message out to some sink: the UI feed, a
// Slack webhook, or anything else.
type Notifier interface {
	Notify(ctx context.Context, level Level, title, text string) error
}

type Multi []Notifier

func (m Multi) Notify(ctx context.Context, level Level, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, level, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
