package gpio

import (
	"errors"
	"sync"
)

// Raw line levels for scripting the fake.
const (
	Low  = false
	High = true
)

// FakeReader is a test double that returns scripted raw line levels.
// It is safe for concurrent use so tests can read counters while the
// detection task is running.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted raw values to return.
	// Each call to Read() consumes the next sample.
	samples []bool
	index   int
	reads   int

	closed  bool
	readErr error
}

// NewFakeReader creates a FakeReader with the given raw samples.
func NewFakeReader(samples []bool) *FakeReader {
	return &FakeReader{samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.readErr != nil {
		return false, f.readErr
	}
	if len(f.samples) == 0 {
		return false, errors.New("no samples configured")
	}

	v := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}
	return v, nil
}

// SetError makes subsequent reads fail with err. Pass nil to recover.
func (f *FakeReader) SetError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// Reads returns how many times Read was called.
func (f *FakeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeReader) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	f.index = 0
	f.reads = 0
	f.closed = false
	f.mu.Unlock()
}

// Repeat returns n copies of level.
func Repeat(level bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = level
	}
	return out
}
