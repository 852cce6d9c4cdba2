// internal/report/types.go
package report

import "context"

// Sender is the delivery-only contract for outbound notifications.
// It sends text verbatim. No formatting, no retry.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Message headers for host lists.
const (
	HeaderPartial = "🟢 Active hosts (partial):"
	HeaderFinal   = "🟢 Active hosts:"
	NoHosts       = "❌ No hosts responded"
)
