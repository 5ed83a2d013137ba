// Package mqtt mirrors presence and lifecycle events to an MQTT broker.
// The broker is optional telemetry; the alert path never depends on it.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for presence events.
const Topic = "security/ir-monitor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "security/ir-monitor/system"

// EventPresence is the event name for a confirmed presence.
const EventPresence = "PRESENCE"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a presence event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event PresenceEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// PresenceEvent is a confirmed detection and what the gate decided.
type PresenceEvent struct {
	Timestamp time.Time
	Alerted   bool // false when suppressed by the cooldown window
}

// SystemEvent represents a system lifecycle event (e.g., startup, restart, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "RUNNING", "RESTARTING", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "uptime", "wifi-timeout", "SIGTERM"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Presence PresencePayload `json:"presence"`
}

// PresencePayload contains the presence event details.
type PresencePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Alerted   bool   `json:"alerted"`
}

// FormatPayload creates the JSON payload for a presence event.
func FormatPayload(event PresenceEvent) ([]byte, error) {
	payload := Payload{
		Presence: PresencePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     EventPresence,
			Alerted:   event.Alerted,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for events that carry no status snapshot, such as the will message.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
// A zero Timestamp is left out.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// WillPayload is the retained OFFLINE message the broker publishes when the
// connection drops. It carries no timestamp because it is registered at
// connect time, long before the broker fires it.
func WillPayload() []byte {
	b, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "connection lost"})
	return b
}
