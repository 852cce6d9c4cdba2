// internal/report/observed.go
package report

import (
	"context"
	"unicode/utf8"

	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
)

// Observed wraps a Sender with logging and metrics. Failures are returned
// unchanged; delivery stays best effort.
type Observed struct {
	Next    Sender
	Log     logging.Logger
	Metrics *metrics.Metrics
}

func (o Observed) SendMessage(ctx context.Context, text string) error {
	err := o.Next.SendMessage(ctx, text)
	o.Metrics.MessageSent(err)

	if err != nil && o.Log != nil {
		o.Log.WithError(err).WithField("chars", utf8.RuneCountInString(text)).Warn("notification not delivered")
	}
	return err
}
