// Package reporttest provides a recording report.Sender for tests.
package reporttest

import (
	"context"
	"strings"
	"sync"
)

// Recorder captures every message. FailWith makes every send fail after
// recording the attempt. OnSend runs after each recorded send.
type Recorder struct {
	mu       sync.Mutex
	messages []string

	FailWith error
	OnSend   func(text string)
}

func (r *Recorder) SendMessage(_ context.Context, text string) error {
	r.mu.Lock()
	r.messages = append(r.messages, text)
	fail := r.FailWith
	hook := r.OnSend
	r.mu.Unlock()

	if hook != nil {
		hook(text)
	}
	return fail
}

// Messages returns a copy of everything sent.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Last returns the most recent message or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Count returns how many messages contain substr.
func (r *Recorder) Count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

// Reset drops recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}
