// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the sensor input line.
type Reader interface {
	// Read returns the raw line level: true = high.
	// The break-beam sensor is active-low, so a broken beam reads false.
	// Normalisation is left to the debounce filter.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for the IR receiver wiring.
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 19
)
