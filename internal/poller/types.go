// internal/poller/types.go
package poller

import (
	"time"

	"github.com/pkg/errors"
)

// ErrMalformedResponse marks a fetch whose payload could not be decoded.
// The batch is discarded and the offset is left where it was.
var ErrMalformedResponse = errors.New("malformed update response")

// Update is one inbound message from the remote API. Immutable once received.
// Identity is ID; batches are processed in ascending ID order.
type Update struct {
	ID         int64
	SenderID   int64
	SenderName string
	Text       string
}

// Result summarizes one poll cycle.
type Result struct {
	At time.Time

	Fetched    int
	Skipped    int // at or below the offset
	Rejected   int // sender is not the principal
	Dispatched int

	Err error // non-nil means the fetch failed and nothing was processed
}
