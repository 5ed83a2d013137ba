// Package logic contains pure business logic for presence detection.
// This package has NO external dependencies (no GPIO, HTTP, OS, or time.Sleep).
package logic

// Sample is one normalised sensor reading.
type Sample uint8

const (
	NotDetected Sample = 0
	Detected    Sample = 1
)

// DefaultWindow is the number of consecutive samples that must agree before
// presence is confirmed.
const DefaultWindow = 5

// String returns a human-readable form for logs.
func (s Sample) String() string {
	if s == Detected {
		return "DETECTED"
	}
	return "NOT_DETECTED"
}

// FromRaw normalises a raw line level from the active-low sensor.
// A low line (false) means the beam is broken.
func FromRaw(raw bool) Sample {
	if raw {
		return NotDetected
	}
	return Detected
}
