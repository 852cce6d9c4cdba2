// internal/report/list.go
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ListWriter accumulates one line per item and delivers the list in chunks.
// Whenever the pending text grows past the threshold it is sent as a partial
// message and the buffer starts over.
type ListWriter struct {
	sender    Sender
	threshold int

	buf     strings.Builder
	pending int
	total   int

	errs []string
}

// DefaultThreshold applies when NewListWriter gets a non-positive threshold.
const DefaultThreshold = 800

// NewListWriter builds a writer flushing after threshold bytes.
func NewListWriter(sender Sender, threshold int) *ListWriter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &ListWriter{sender: sender, threshold: threshold}
}

// Add appends one line. It may deliver a partial message.
func (w *ListWriter) Add(ctx context.Context, line string) {
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
	w.pending++
	w.total++

	if w.buf.Len() > w.threshold {
		w.flush(ctx, HeaderPartial)
	}
}

// Total is the number of lines added so far.
func (w *ListWriter) Total() int { return w.total }

// Finish delivers the final message: the remaining lines, the total when
// every line already went out in partial messages, or NoHosts when nothing
// was added. It returns every delivery failure seen by this writer.
func (w *ListWriter) Finish(ctx context.Context) error {
	switch {
	case w.pending > 0:
		w.flush(ctx, HeaderFinal)
	case w.total == 0:
		w.send(ctx, NoHosts)
	default:
		w.send(ctx, fmt.Sprintf("%s %d in total", HeaderFinal, w.total))
	}
	return w.Err()
}

// Abort delivers whatever is pending as a partial message followed by note.
func (w *ListWriter) Abort(ctx context.Context, note string) error {
	if w.pending > 0 {
		w.flush(ctx, HeaderPartial)
	}
	w.send(ctx, note)
	return w.Err()
}

// Err joins the delivery failures seen so far.
func (w *ListWriter) Err() error {
	if len(w.errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(w.errs, " | "))
}

func (w *ListWriter) flush(ctx context.Context, header string) {
	text := header + "\n" + strings.TrimRight(w.buf.String(), "\n")
	w.buf.Reset()
	w.pending = 0
	w.send(ctx, text)
}

func (w *ListWriter) send(ctx context.Context, text string) {
	if err := w.sender.SendMessage(ctx, text); err != nil {
		w.errs = append(w.errs, fmt.Sprintf("report: send failed: %v", err))
	}
}
