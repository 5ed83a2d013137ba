package monitor

import (
	"time"

	"github.com/sweeney/ir-monitor/internal/logic"
	"github.com/sweeney/ir-monitor/internal/network"
	"github.com/sweeney/ir-monitor/internal/notify"
)

// Compiled thresholds and cadences.
const (
	SampleInterval   = 50 * time.Millisecond
	UptimeInterval   = time.Second
	CooldownInterval = 100 * time.Millisecond

	// CooldownWindow is counted in CooldownInterval ticks (3 s).
	CooldownWindow = 30

	// UptimeLimit is counted in UptimeInterval ticks (24 h).
	UptimeLimit = 24 * 60 * 60
)

// Config holds the task cadences and thresholds. Production always runs with
// DefaultConfig; tests shrink the intervals.
type Config struct {
	SampleInterval   time.Duration
	UptimeInterval   time.Duration
	CooldownInterval time.Duration
	CooldownWindow   int64
	UptimeLimit      int64
	FilterSize       int
	JoinTimeout      time.Duration
	JoinPollInterval time.Duration
	Message          string
}

// DefaultConfig returns the compiled configuration.
func DefaultConfig() Config {
	return Config{
		SampleInterval:   SampleInterval,
		UptimeInterval:   UptimeInterval,
		CooldownInterval: CooldownInterval,
		CooldownWindow:   CooldownWindow,
		UptimeLimit:      UptimeLimit,
		FilterSize:       logic.DefaultWindow,
		JoinTimeout:      network.JoinTimeout,
		JoinPollInterval: network.JoinPollInterval,
		Message:          notify.DefaultMessage,
	}
}

// CooldownDuration is the wall-clock length of the alert window.
func (c Config) CooldownDuration() time.Duration {
	return time.Duration(c.CooldownWindow) * c.CooldownInterval
}
