// Package status provides a thread-safe status tracker for the ir-monitor daemon.
// It is designed to be read by HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"
)

// Phase is the daemon lifecycle state.
type Phase string

const (
	PhaseBooting        Phase = "BOOTING"
	PhaseConnectingWiFi Phase = "CONNECTING_WIFI"
	PhaseRunning        Phase = "RUNNING"
	PhaseRestarting     Phase = "RESTARTING"
)

// Config contains daemon configuration for display.
type Config struct {
	SampleMs          int64
	CooldownMs        int64
	UptimeLimitS      int64
	FilterSize        int
	Interface         string
	Broker            string
	HTTPAddr          string
	WebhookConfigured bool
}

// Counts tracks presence outcomes since startup.
type Counts struct {
	Detections int // confirmed presence events
	Alerts     int // alerts dispatched
	Suppressed int // detections inside the cooldown window
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Phase         Phase
	UptimeTicks   int64
	CooldownTicks int64
	WiFiConnected bool
	SSID          string
	MQTTConnected bool
	Counts        Counts
	LastDetection time.Time
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     PhaseBooting,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetPhase records a lifecycle transition.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	t.snap.Phase = p
	t.mu.Unlock()
}

// SetCounters records the latest counter readings.
func (t *Tracker) SetCounters(uptime, cooldown int64) {
	t.mu.Lock()
	t.snap.UptimeTicks = uptime
	t.snap.CooldownTicks = cooldown
	t.mu.Unlock()
}

// RecordDetection counts a confirmed presence and whether it was alerted.
func (t *Tracker) RecordDetection(at time.Time, alerted bool) {
	t.mu.Lock()
	t.snap.Counts.Detections++
	if alerted {
		t.snap.Counts.Alerts++
	} else {
		t.snap.Counts.Suppressed++
	}
	t.snap.LastDetection = at
	t.mu.Unlock()
}

// SetWiFi sets the Wi-Fi connection status.
func (t *Tracker) SetWiFi(connected bool) {
	t.mu.Lock()
	t.snap.WiFiConnected = connected
	t.mu.Unlock()
}

// SetSSID sets the network name shown on the status page.
func (t *Tracker) SetSSID(ssid string) {
	t.mu.Lock()
	t.snap.SSID = ssid
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
