package alerts

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes alert notifications to the structured log. It is the
// default delivery channel; push transports can replace it behind the same
// interface.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("service", "notifier").Logger()}
}

// Notify logs the alert message at warn level so it stands out in output.
func (n *LogNotifier) Notify(_ context.Context, title, body string) error {
	n.log.Warn().Str("title", title).Msg(body)
	return nil
}
