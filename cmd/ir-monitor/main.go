// Command ir-monitor watches an IR break-beam sensor and sends a webhook alert
// when someone walks through it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sweeney/ir-monitor/internal/gpio"
	"github.com/sweeney/ir-monitor/internal/logic"
	"github.com/sweeney/ir-monitor/internal/monitor"
	"github.com/sweeney/ir-monitor/internal/mqtt"
	"github.com/sweeney/ir-monitor/internal/network"
	"github.com/sweeney/ir-monitor/internal/notify"
	"github.com/sweeney/ir-monitor/internal/status"
	"github.com/sweeney/ir-monitor/internal/system"
	"github.com/sweeney/ir-monitor/internal/web"
)

func main() {
	Execute()
}

func run(opts options) error {
	l, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer l.Sync()
	logger := l.Sugar().Named("ir_monitor")

	reader, err := gpio.NewRealReader(opts.Chip, opts.Pin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if opts.PrintState {
		raw, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(stateLine(opts.Pin, raw))
		return nil
	}

	if opts.WebhookURL == "" {
		return errors.New("webhook url is required (--webhook-url or IRMON_WEBHOOK_URL)")
	}

	creds, err := network.LoadCredentials(opts.Credentials)
	if err != nil {
		return err
	}

	cfg := monitor.DefaultConfig()
	cfg.Message = opts.Message
	tracker := status.NewTracker(time.Now(), statusConfig(cfg, opts))

	var publisher mqtt.Publisher
	if opts.Broker != "" {
		p := mqtt.NewRealPublisher(opts.Broker, l.Sugar().Named("mqtt"))
		defer p.Close()
		publisher = p
	}

	station, err := network.NewWPAStation(context.Background(), opts.Interface)
	if err != nil {
		return fmt.Errorf("init wifi: %w", err)
	}
	defer station.Close()

	var restarter system.Restarter
	if r, err := system.NewLogindRestarter(); err != nil {
		logger.Warnw("logind unavailable, restart will exit the process", "error", err)
		restarter = system.ProcessRestarter{}
	} else {
		defer r.Close()
		restarter = system.FallbackRestarter{
			Primary:  r,
			Fallback: system.ProcessRestarter{},
			Log:      logger,
		}
	}

	deps := monitor.Deps{
		Reader:    reader,
		Notifier:  notify.NewWebhook(opts.WebhookURL, nil),
		Station:   station,
		Restarter: restarter,
		Publisher: publisher,
		Tracker:   tracker,
		Logger:    l.Sugar().Named("monitor"),
	}
	if opts.TimeServers {
		deps.NTPQuery = network.DefaultNTPQuery
	}

	d := &daemon{
		log:       logger,
		monitor:   monitor.New(cfg, deps),
		publisher: publisher,
		tracker:   tracker,
	}
	d.publishSystem("STARTUP", "")

	if opts.HTTPAddr != "" {
		srv := web.New(opts.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infow("http status server listening", "addr", opts.HTTPAddr)
	}

	hb, err := startHeartbeat(opts.Heartbeat, d.heartbeat)
	if err != nil {
		return err
	}
	defer hb.Stop()

	logger.Infow("started",
		"pin", opts.Pin,
		"interface", opts.Interface,
		"ssid", creds.SSID,
		"broker", opts.Broker,
		"heartbeat", opts.Heartbeat,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return exitStatus(logger, d.serve(creds, sigCh))
}

// exitStatus maps the result of serve to the error run returns. A requested
// restart stays an error so the process exits non-zero and the service
// manager starts it again even if the reboot never happens.
func exitStatus(log *zap.SugaredLogger, err error) error {
	if errors.Is(err, monitor.ErrRestart) {
		log.Infow("restart requested, exiting")
		return fmt.Errorf("exiting for restart: %w", err)
	}
	return err
}

// daemon ties the monitor to the process lifecycle: readiness, signals and
// the lifecycle events around the monitor's own.
type daemon struct {
	log       *zap.SugaredLogger
	monitor   *monitor.Monitor
	publisher mqtt.Publisher
	tracker   *status.Tracker
}

// serve boots the monitor and runs it until a restart is requested or a
// signal arrives. A signal produces a SHUTDOWN event and a nil error.
func (d *daemon) serve(creds network.Credentials, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reason := make(chan string, 1)
	go func() {
		select {
		case s := <-sig:
			d.log.Infow("received signal, shutting down", "signal", s.String())
			reason <- signalName(s)
			cancel()
		case <-ctx.Done():
		}
	}()

	err := d.monitor.Boot(ctx, creds)
	if err == nil {
		if _, nerr := system.NotifyReady(); nerr != nil {
			d.log.Warnw("sd_notify ready", "error", nerr)
		}
		err = d.monitor.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if _, nerr := system.NotifyStopping(); nerr != nil {
		d.log.Warnw("sd_notify stopping", "error", nerr)
	}
	d.publishSystem("SHUTDOWN", <-reason)
	return nil
}

func (d *daemon) heartbeat() {
	up, cd := d.monitor.Uptime().Value(), d.monitor.Cooldown().Value()
	d.tracker.SetCounters(up, cd)
	snap := d.tracker.Snapshot()
	d.log.Infow("heartbeat",
		"phase", snap.Phase,
		"uptime_ticks", up,
		"detections", snap.Counts.Detections,
		"alerts", snap.Counts.Alerts,
		"suppressed", snap.Counts.Suppressed,
	)
	d.publishSystem("HEARTBEAT", "")
}

func (d *daemon) publishSystem(event, reason string) {
	if d.publisher == nil {
		return
	}
	if cs, ok := d.publisher.(mqtt.ConnectionStatus); ok {
		d.tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := d.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := d.publisher.PublishSystem(ev); err != nil {
		d.log.Warnw("failed to publish system event", "event", event, "error", err)
		return
	}
	d.log.Infow("published system event", "event", event)
}

// startHeartbeat runs job on the cron schedule. An empty schedule returns a
// scheduler with no entries.
func startHeartbeat(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if schedule != "" {
		if _, err := c.AddFunc(schedule, job); err != nil {
			return nil, fmt.Errorf("heartbeat schedule %q: %w", schedule, err)
		}
	}
	c.Start()
	return c, nil
}

func statusConfig(cfg monitor.Config, opts options) status.Config {
	return status.Config{
		SampleMs:          cfg.SampleInterval.Milliseconds(),
		CooldownMs:        cfg.CooldownDuration().Milliseconds(),
		UptimeLimitS:      int64((time.Duration(cfg.UptimeLimit) * cfg.UptimeInterval).Seconds()),
		FilterSize:        cfg.FilterSize,
		Interface:         opts.Interface,
		Broker:            opts.Broker,
		HTTPAddr:          opts.HTTPAddr,
		WebhookConfigured: opts.WebhookURL != "",
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func stateLine(pin int, raw bool) string {
	level := "HIGH"
	if !raw {
		level = "LOW"
	}
	return fmt.Sprintf("pin %d: %s (%s)", pin, level, logic.FromRaw(raw))
}
