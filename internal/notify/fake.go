package notify

import (
	"context"
	"sync"
	"time"
)

// FakeNotifier records alerts for test assertions.
type FakeNotifier struct {
	mu      sync.Mutex
	sent    []Sent
	sendErr error
	now     func() time.Time
}

// Sent is one recorded alert.
type Sent struct {
	Content string
	At      time.Time
}

// NewFakeNotifier creates a FakeNotifier. now stamps each recorded alert;
// nil uses time.Now.
func NewFakeNotifier(now func() time.Time) *FakeNotifier {
	if now == nil {
		now = time.Now
	}
	return &FakeNotifier{now: now}
}

// Send records the alert. The alert is recorded even when an error is
// configured, matching a POST that went out but failed.
func (f *FakeNotifier) Send(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{Content: content, At: f.now()})
	return f.sendErr
}

// SetError makes subsequent sends return err.
func (f *FakeNotifier) SetError(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

// Sent returns a copy of the recorded alerts.
func (f *FakeNotifier) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// Count returns the number of recorded alerts.
func (f *FakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
