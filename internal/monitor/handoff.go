package monitor

import (
	"context"
	"time"
)

// Token signals one confirmed presence. At is informational only.
type Token struct {
	At time.Time
}

// Handoff is a single-slot queue between the detection and notification
// tasks. A send completes immediately when the slot is empty and blocks while
// the previous token is still waiting to be received.
type Handoff struct {
	ch chan Token
}

// NewHandoff creates an empty handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan Token, 1)}
}

// Send places tok in the slot, waiting for it to free up.
func (h *Handoff) Send(ctx context.Context, tok Token) error {
	select {
	case h.ch <- tok:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for a token.
func (h *Handoff) Receive(ctx context.Context) (Token, error) {
	select {
	case tok := <-h.ch:
		return tok, nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}

// Pending reports whether a token is waiting in the slot.
func (h *Handoff) Pending() bool {
	return len(h.ch) > 0
}
