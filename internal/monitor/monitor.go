// Package monitor runs the presence pipeline: the tick sources that drive the
// uptime and cooldown counters, the detection task that debounces the
// sensor, the notification task that gates and sends alerts, and the
// watchdog that restarts the board after a day of uptime.
//
// All long-lived state lives in one Monitor value constructed at startup.
// The two counters are the only state shared between tasks.
package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sweeney/ir-monitor/internal/clock"
	"github.com/sweeney/ir-monitor/internal/counter"
	"github.com/sweeney/ir-monitor/internal/gpio"
	"github.com/sweeney/ir-monitor/internal/logic"
	"github.com/sweeney/ir-monitor/internal/mqtt"
	"github.com/sweeney/ir-monitor/internal/network"
	"github.com/sweeney/ir-monitor/internal/notify"
	"github.com/sweeney/ir-monitor/internal/status"
	"github.com/sweeney/ir-monitor/internal/system"
)

// ErrRestart is returned once a restart has been requested.
var ErrRestart = errors.New("monitor: restart requested")

// Restart reasons.
const (
	ReasonUptime      = "uptime"
	ReasonWiFiTimeout = "wifi-timeout"
)

// Deps are the collaborators the monitor drives. Publisher and Tracker are
// optional.
type Deps struct {
	Reader    gpio.Reader
	Notifier  notify.Notifier
	Station   network.Station
	Restarter system.Restarter
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	NTPQuery  network.NTPQuery
	Logger    *zap.SugaredLogger
}

// Monitor owns the counters, the debounce filter and the token handoff.
type Monitor struct {
	cfg  Config
	deps Deps
	log  *zap.SugaredLogger
	now  func() time.Time

	uptime   *counter.Counter
	cooldown *counter.Counter

	uptimeSrc   *clock.Source
	cooldownSrc *clock.Source

	filter *logic.Filter
	tokens *Handoff

	reconnectLog *rate.Limiter
}

// New builds a Monitor. The filter starts cleared and both counters at zero.
func New(cfg Config, deps Deps) *Monitor {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	m := &Monitor{
		cfg:          cfg,
		deps:         deps,
		log:          log,
		now:          time.Now,
		uptime:       counter.New(0),
		cooldown:     counter.New(0),
		filter:       logic.NewFilter(cfg.FilterSize),
		tokens:       NewHandoff(),
		reconnectLog: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
	m.uptimeSrc = clock.NewSource(cfg.UptimeInterval, func() { m.uptime.Increment() })
	m.cooldownSrc = clock.NewSource(cfg.CooldownInterval, func() { m.cooldown.DecrementClamped() })
	return m
}

// Uptime returns the uptime counter.
func (m *Monitor) Uptime() *counter.Counter { return m.uptime }

// Cooldown returns the cooldown counter.
func (m *Monitor) Cooldown() *counter.Counter { return m.cooldown }

// Start brings up Wi-Fi and then runs the tasks until ctx is cancelled or a
// restart is requested.
func (m *Monitor) Start(ctx context.Context, creds network.Credentials) error {
	if err := m.Boot(ctx, creds); err != nil {
		return err
	}
	return m.Run(ctx)
}

// Boot joins the network within the bring-up timeout. A timeout triggers a
// restart and returns ErrRestart. On success the time source is queried and
// the phase moves to RUNNING.
func (m *Monitor) Boot(ctx context.Context, creds network.Credentials) error {
	m.setPhase(status.PhaseConnectingWiFi)
	if m.deps.Tracker != nil {
		m.deps.Tracker.SetSSID(creds.SSID)
	}

	err := network.BringUp(ctx, m.deps.Station, creds, m.cfg.JoinTimeout, m.cfg.JoinPollInterval, m.log.Named("wifi"))
	if errors.Is(err, network.ErrJoinTimeout) {
		m.restart(ReasonWiFiTimeout)
		return ErrRestart
	}
	if err != nil {
		return err
	}
	if m.deps.Tracker != nil {
		m.deps.Tracker.SetWiFi(true)
	}

	if m.deps.NTPQuery != nil {
		if ts, err := network.SyncTime(network.NTPServers, m.deps.NTPQuery); err != nil {
			m.log.Warnw("time sync failed", "error", err)
		} else {
			m.log.Infow("time synced", "server", ts.Server, "offset", ts.Offset, "local", ts.Local.Format(time.RFC3339))
		}
	}

	m.setPhase(status.PhaseRunning)
	m.publishSystem("RUNNING", "")
	return nil
}

// Run starts the tick sources and the three tasks and blocks until ctx is
// cancelled (returns nil) or the watchdog requests a restart (returns
// ErrRestart).
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.uptimeSrc.Run(ctx)
		return nil
	})
	g.Go(func() error {
		m.cooldownSrc.Run(ctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(m.cfg.SampleInterval)
		defer ticker.Stop()
		return m.runDetection(ctx, ticker.C)
	})
	g.Go(func() error { return m.runNotification(ctx) })
	g.Go(func() error { return m.runWatchdog(ctx) })

	return g.Wait()
}

func (m *Monitor) runDetection(ctx context.Context, ticks <-chan time.Time) error {
	m.filter.Clear()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if err := m.detectOnce(ctx); err != nil {
				return nil
			}
		}
	}
}

// detectOnce takes one sample. On confirmation it hands off a token, waiting
// for the slot if needed, then clears the filter. It only fails when ctx is
// cancelled during the handoff.
func (m *Monitor) detectOnce(ctx context.Context) error {
	raw, err := m.deps.Reader.Read()
	if err != nil {
		m.log.Warnw("gpio read error", "error", err)
		return nil
	}

	m.filter.Sample(raw)
	if !m.filter.Confirmed() {
		return nil
	}

	tok := Token{At: m.now()}
	if err := m.tokens.Send(ctx, tok); err != nil {
		return err
	}
	m.filter.Clear()
	m.log.Infow("presence confirmed", "at", tok.At)
	return nil
}

func (m *Monitor) runNotification(ctx context.Context) error {
	for {
		tok, err := m.tokens.Receive(ctx)
		if err != nil {
			return nil
		}
		m.handleToken(ctx, tok)
	}
}

// handleToken gates one presence on the cooldown window, sends the alert if
// the window was free, then supervises Wi-Fi.
func (m *Monitor) handleToken(ctx context.Context, tok Token) {
	alerted := m.cooldown.TryReserve(m.cfg.CooldownWindow)
	if alerted {
		if err := m.deps.Notifier.Send(ctx, m.cfg.Message); err != nil {
			m.log.Debugw("alert delivery failed", "error", err)
		}
		m.log.Infow("alert sent", "at", tok.At)
	} else {
		m.log.Debugw("alert suppressed", "cooldown", m.cooldown.Value())
	}

	if m.deps.Tracker != nil {
		m.deps.Tracker.RecordDetection(tok.At, alerted)
	}
	if m.deps.Publisher != nil {
		if err := m.deps.Publisher.Publish(mqtt.PresenceEvent{Timestamp: tok.At, Alerted: alerted}); err != nil {
			m.log.Warnw("publish presence", "error", err)
		}
	}

	m.superviseWiFi()
}

func (m *Monitor) superviseWiFi() {
	triggered, err := network.Recover(m.deps.Station)
	if m.deps.Tracker != nil {
		m.deps.Tracker.SetWiFi(!triggered)
	}
	if triggered && m.reconnectLog.Allow() {
		m.log.Warnw("wifi disconnected, reconnecting", "error", err)
	}
}

func (m *Monitor) runWatchdog(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.uptimeSrc.Signal():
			if m.checkUptime() {
				return ErrRestart
			}
		}
	}
}

// checkUptime restarts once the uptime counter exceeds the limit and reports
// whether it did.
func (m *Monitor) checkUptime() bool {
	up := m.uptime.Value()
	if m.deps.Tracker != nil {
		m.deps.Tracker.SetCounters(up, m.cooldown.Value())
	}
	if up <= m.cfg.UptimeLimit {
		return false
	}
	m.restart(ReasonUptime)
	return true
}

func (m *Monitor) restart(reason string) {
	m.log.Warnw("restarting", "reason", reason, "uptime", m.uptime.Value())
	m.setPhase(status.PhaseRestarting)
	m.publishSystem("RESTARTING", reason)
	if err := m.deps.Restarter.Restart(reason); err != nil {
		m.log.Errorw("restart failed", "reason", reason, "error", err)
	}
}

func (m *Monitor) setPhase(p status.Phase) {
	if m.deps.Tracker != nil {
		m.deps.Tracker.SetPhase(p)
	}
}

func (m *Monitor) publishSystem(event, reason string) {
	if m.deps.Publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{Timestamp: m.now(), Event: event, Reason: reason, Retained: true}
	if m.deps.Tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(m.deps.Tracker.Snapshot(), event, reason)
	}
	if err := m.deps.Publisher.PublishSystem(ev); err != nil {
		m.log.Warnw("publish system event", "event", event, "error", err)
	}
}
