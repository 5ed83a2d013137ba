package network

import (
	"context"
	"errors"
	"sync"
)

// FakeStation is a scripted Station for tests.
type FakeStation struct {
	mu sync.Mutex

	connected bool
	joined    []Credentials
	joinErr   error
	joinFails int

	joinAttempts int

	disconnects int
	reconnects  int

	// connectAfter, when > 0, flips connected to true after that many
	// Connected() polls following a Join.
	connectAfter int
	polls        int
}

// NewFakeStation creates a FakeStation with the given initial link state.
func NewFakeStation(connected bool) *FakeStation {
	return &FakeStation{connected: connected}
}

// ConnectAfter makes the station report connected after n polls of
// Connected following Join.
func (f *FakeStation) ConnectAfter(n int) {
	f.mu.Lock()
	f.connectAfter = n
	f.mu.Unlock()
}

// SetJoinError makes Join fail with err.
func (f *FakeStation) SetJoinError(err error) {
	f.mu.Lock()
	f.joinErr = err
	f.mu.Unlock()
}

// FailJoins makes the next n calls to Join fail before it starts accepting.
func (f *FakeStation) FailJoins(n int) {
	f.mu.Lock()
	f.joinFails = n
	f.mu.Unlock()
}

// JoinAttempts returns how many times Join was called, failed or not.
func (f *FakeStation) JoinAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joinAttempts
}

// SetConnected sets the reported link state.
func (f *FakeStation) SetConnected(c bool) {
	f.mu.Lock()
	f.connected = c
	f.mu.Unlock()
}

// Join records creds.
func (f *FakeStation) Join(_ context.Context, creds Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinAttempts++
	if f.joinErr != nil {
		return f.joinErr
	}
	if f.joinFails > 0 {
		f.joinFails--
		return errors.New("fake: join refused")
	}
	f.joined = append(f.joined, creds)
	f.polls = 0
	return nil
}

// Connected reports the scripted link state.
func (f *FakeStation) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.connectAfter > 0 && len(f.joined) > 0 && f.polls >= f.connectAfter {
		f.connected = true
	}
	return f.connected
}

// Disconnect records the call and drops the link.
func (f *FakeStation) Disconnect() error {
	f.mu.Lock()
	f.disconnects++
	f.connected = false
	f.mu.Unlock()
	return nil
}

// Reconnect records the call. The link state is left unchanged; tests flip it
// with SetConnected.
func (f *FakeStation) Reconnect() error {
	f.mu.Lock()
	f.reconnects++
	f.mu.Unlock()
	return nil
}

// Joined returns the credentials passed to Join.
func (f *FakeStation) Joined() []Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Credentials(nil), f.joined...)
}

// Disconnects returns how many times Disconnect was called.
func (f *FakeStation) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// Reconnects returns how many times Reconnect was called.
func (f *FakeStation) Reconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reconnects
}
