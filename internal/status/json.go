package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Phase         string     `json:"phase"`
	UptimeTicks   int64      `json:"uptime_ticks"`
	CooldownTicks int64      `json:"cooldown_ticks"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	LastDetection string     `json:"last_detection,omitempty"`
	WiFi          WiFiStatus `json:"wifi"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// WiFiStatus reports Wi-Fi connection state.
type WiFiStatus struct {
	Connected bool   `json:"connected"`
	Interface string `json:"interface"`
	SSID      string `json:"ssid,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of presence counts.
type CountsJSON struct {
	Detections int `json:"detections"`
	Alerts     int `json:"alerts"`
	Suppressed int `json:"suppressed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleMs          int64  `json:"sample_ms"`
	CooldownMs        int64  `json:"cooldown_ms"`
	UptimeLimitS      int64  `json:"uptime_limit_s"`
	FilterSize        int    `json:"filter_size"`
	HTTPAddr          string `json:"http_addr,omitempty"`
	WebhookConfigured bool   `json:"webhook_configured"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		Phase:         phase,
		UptimeTicks:   snap.UptimeTicks,
		CooldownTicks: snap.CooldownTicks,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		WiFi: WiFiStatus{
			Connected: snap.WiFiConnected,
			Interface: snap.Config.Interface,
			SSID:      snap.SSID,
		},
		MQTT: MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Detections: snap.Counts.Detections,
			Alerts:     snap.Counts.Alerts,
			Suppressed: snap.Counts.Suppressed,
		},
		Config: ConfigJSON{
			SampleMs:          snap.Config.SampleMs,
			CooldownMs:        snap.Config.CooldownMs,
			UptimeLimitS:      snap.Config.UptimeLimitS,
			FilterSize:        snap.Config.FilterSize,
			HTTPAddr:          snap.Config.HTTPAddr,
			WebhookConfigured: snap.Config.WebhookConfigured,
		},
	}
	if !snap.LastDetection.IsZero() {
		inner.LastDetection = snap.LastDetection.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
