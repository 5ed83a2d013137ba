package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/sweeney/ir-monitor/internal/gpio"
	"github.com/sweeney/ir-monitor/internal/monitor"
	"github.com/sweeney/ir-monitor/internal/mqtt"
	"github.com/sweeney/ir-monitor/internal/network"
	"github.com/sweeney/ir-monitor/internal/notify"
	"github.com/sweeney/ir-monitor/internal/status"
	"github.com/sweeney/ir-monitor/internal/system"
	"github.com/sweeney/ir-monitor/internal/web"
)

// hookRecorder is a webhook endpoint that keeps every request body.
type hookRecorder struct {
	mu     sync.Mutex
	bodies [][]byte
	ctypes []string
}

func (h *hookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.bodies = append(h.bodies, body)
	h.ctypes = append(h.ctypes, r.Header.Get("Content-Type"))
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bodies)
}

type rig struct {
	hook      *hookRecorder
	reader    *gpio.FakeReader
	station   *network.FakeStation
	restarter *system.FakeRestarter
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	monitor   *monitor.Monitor
	status    *httptest.Server
}

func newRig(t *testing.T, cfg monitor.Config, samples []bool) *rig {
	t.Helper()
	r := &rig{
		hook:      &hookRecorder{},
		reader:    gpio.NewFakeReader(samples),
		station:   network.NewFakeStation(true),
		restarter: system.NewFakeRestarter(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(time.Now(), status.Config{Interface: "wlan0", WebhookConfigured: true}),
	}
	hook := httptest.NewServer(r.hook)
	t.Cleanup(hook.Close)

	r.status = httptest.NewServer(web.New(":0", r.tracker).Router())
	t.Cleanup(r.status.Close)

	r.monitor = monitor.New(cfg, monitor.Deps{
		Reader:    r.reader,
		Notifier:  notify.NewWebhook(hook.URL, hook.Client()),
		Station:   r.station,
		Restarter: r.restarter,
		Publisher: r.publisher,
		Tracker:   r.tracker,
		Logger:    zaptest.NewLogger(t).Sugar(),
	})
	return r
}

// start boots the monitor and runs it in the background. The returned
// function cancels the run and waits for it to finish.
func (r *rig) start(t *testing.T) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := r.monitor.Boot(ctx, network.Credentials{SSID: "myssid", Passphrase: "mypass"}); err != nil {
		cancel()
		t.Fatalf("boot: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- r.monitor.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("monitor did not stop")
			return nil
		}
	}
}

func (r *rig) statusJSON(t *testing.T) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(r.status.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return sj
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func fastConfig() monitor.Config {
	cfg := monitor.DefaultConfig()
	cfg.SampleInterval = time.Millisecond
	cfg.CooldownInterval = time.Millisecond
	cfg.JoinPollInterval = time.Millisecond
	return cfg
}

func concat(parts ...[]bool) []bool {
	var out []bool
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TestIntegrationSinglePresence walks one person through the beam: quiet,
// five low samples, quiet again.
func TestIntegrationSinglePresence(t *testing.T) {
	samples := concat(gpio.Repeat(gpio.High, 10), gpio.Repeat(gpio.Low, 5), gpio.Repeat(gpio.High, 1))
	r := newRig(t, fastConfig(), samples)
	stop := r.start(t)

	waitFor(t, "one alert", func() bool { return r.hook.count() == 1 })
	waitFor(t, "trailing quiet samples", func() bool { return r.reader.Reads() > len(samples)+20 })
	if err := stop(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := r.hook.count(); n != 1 {
		t.Fatalf("expected 1 alert, got %d", n)
	}
	if r.hook.ctypes[0] != "application/json" {
		t.Errorf("Content-Type: got %q", r.hook.ctypes[0])
	}
	var p notify.Payload
	if err := json.Unmarshal(r.hook.bodies[0], &p); err != nil {
		t.Fatalf("decode alert: %v", err)
	}
	want := notify.Payload{Username: notify.Username, AvatarURL: notify.AvatarURL, Content: notify.DefaultMessage}
	if p != want {
		t.Errorf("payload: got %+v, want %+v", p, want)
	}

	events := r.publisher.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 presence event, got %d", len(events))
	}
	if !events[0].Alerted {
		t.Error("presence event should be marked alerted")
	}

	sj := r.statusJSON(t)
	if sj.Status.Phase != "RUNNING" {
		t.Errorf("phase: got %q, want RUNNING", sj.Status.Phase)
	}
	if (sj.Status.Counts != status.CountsJSON{Detections: 1, Alerts: 1}) {
		t.Errorf("counts: got %+v", sj.Status.Counts)
	}
	if !sj.Status.WiFi.Connected || sj.Status.WiFi.SSID != "myssid" {
		t.Errorf("wifi: got %+v", sj.Status.WiFi)
	}
	if r.restarter.Count() != 0 {
		t.Errorf("unexpected restart: %v", r.restarter.Reasons())
	}
}

// TestIntegrationFlickerNeverAlerts feeds a beam that never stays broken for
// a full window.
func TestIntegrationFlickerNeverAlerts(t *testing.T) {
	var samples []bool
	for i := 0; i < 20; i++ {
		samples = append(samples, concat(gpio.Repeat(gpio.Low, 4), gpio.Repeat(gpio.High, 1))...)
	}
	r := newRig(t, fastConfig(), samples)
	stop := r.start(t)

	waitFor(t, "all samples read", func() bool { return r.reader.Reads() >= len(samples) })
	if err := stop(); err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := r.hook.count(); n != 0 {
		t.Errorf("expected no alerts, got %d", n)
	}
	if n := len(r.publisher.Events()); n != 0 {
		t.Errorf("expected no presence events, got %d", n)
	}
}

// TestIntegrationContinuousPresence holds the beam broken. Detections keep
// coming but alerts are held to one per cooldown window.
func TestIntegrationContinuousPresence(t *testing.T) {
	cfg := fastConfig()
	cfg.CooldownInterval = 10 * time.Millisecond // 300 ms window
	r := newRig(t, cfg, []bool{gpio.Low})

	began := time.Now()
	stop := r.start(t)
	waitFor(t, "suppressed detections", func() bool { return r.tracker.Snapshot().Counts.Suppressed >= 10 })
	if err := stop(); err != nil {
		t.Fatalf("run: %v", err)
	}
	elapsed := time.Since(began)

	counts := r.tracker.Snapshot().Counts
	// A late ticker tick can land right before the next one; allow slack.
	maxAlerts := int(elapsed/(cfg.CooldownDuration()-2*cfg.CooldownInterval)) + 1
	if counts.Alerts < 1 || counts.Alerts > maxAlerts {
		t.Errorf("alerts: got %d, want 1..%d over %v", counts.Alerts, maxAlerts, elapsed)
	}
	if r.hook.count() != counts.Alerts {
		t.Errorf("webhook saw %d alerts, tracker counted %d", r.hook.count(), counts.Alerts)
	}
	if counts.Detections != counts.Alerts+counts.Suppressed {
		t.Errorf("counts do not add up: %+v", counts)
	}
}

// TestIntegrationWiFiRecovery drops the link after boot. The next presence
// triggers a disconnect and reconnect.
func TestIntegrationWiFiRecovery(t *testing.T) {
	samples := concat(gpio.Repeat(gpio.Low, 5), gpio.Repeat(gpio.High, 1))
	r := newRig(t, fastConfig(), samples)
	r.station.SetConnected(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.station.ConnectAfter(1)
	if err := r.monitor.Boot(ctx, network.Credentials{SSID: "myssid"}); err != nil {
		t.Fatalf("boot: %v", err)
	}
	r.station.ConnectAfter(0)
	r.station.SetConnected(false)

	done := make(chan error, 1)
	go func() { done <- r.monitor.Run(ctx) }()

	waitFor(t, "reconnect", func() bool { return r.station.Reconnects() == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	if r.station.Disconnects() != 1 {
		t.Errorf("disconnects: got %d, want 1", r.station.Disconnects())
	}
	if r.statusJSON(t).Status.WiFi.Connected {
		t.Error("status should show wifi down")
	}
}

// TestIntegrationDailyRestart runs with a short uptime limit and expects one
// restart with a RESTARTING lifecycle event.
func TestIntegrationDailyRestart(t *testing.T) {
	cfg := fastConfig()
	cfg.UptimeInterval = time.Millisecond
	cfg.UptimeLimit = 10
	r := newRig(t, cfg, []bool{gpio.High})

	if err := r.monitor.Boot(context.Background(), network.Credentials{SSID: "myssid"}); err != nil {
		t.Fatalf("boot: %v", err)
	}
	err := r.monitor.Run(context.Background())
	if err != monitor.ErrRestart {
		t.Fatalf("run: got %v, want ErrRestart", err)
	}

	if r.restarter.Count() != 1 {
		t.Errorf("restarts: got %d, want 1", r.restarter.Count())
	}
	names := r.publisher.SystemEventNames()
	if len(names) != 2 || names[0] != "RUNNING" || names[1] != "RESTARTING" {
		t.Errorf("system events: got %v, want [RUNNING RESTARTING]", names)
	}
	var sj status.StatusJSON
	if err := json.Unmarshal(r.publisher.SystemEvents()[1].RawPayload, &sj); err != nil {
		t.Fatalf("decode restart payload: %v", err)
	}
	if sj.Status.Reason != monitor.ReasonUptime {
		t.Errorf("reason: got %q, want %q", sj.Status.Reason, monitor.ReasonUptime)
	}
	if sj.Status.Phase != "RESTARTING" {
		t.Errorf("phase: got %q, want RESTARTING", sj.Status.Phase)
	}
}
