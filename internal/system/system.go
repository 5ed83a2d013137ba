// Package system wraps the host services the monitor depends on: rebooting
// the board and reporting readiness to systemd.
package system

import (
	"fmt"
	"os"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/godbus/dbus/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Restarter performs a full restart. A nil error means the request was
// accepted; production callers are not expected to regain control for long.
type Restarter interface {
	Restart(reason string) error
}

// logind D-Bus names.
const (
	logindService = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindReboot  = "org.freedesktop.login1.Manager.Reboot"
)

// LogindRestarter reboots the host through systemd-logind.
type LogindRestarter struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewLogindRestarter connects to logind on the system bus.
func NewLogindRestarter() (*LogindRestarter, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &LogindRestarter{conn: conn, obj: conn.Object(logindService, logindPath)}, nil
}

// Restart asks logind to reboot without interactive authorisation and
// reports a refusal (for example a polkit denial).
func (r *LogindRestarter) Restart(reason string) error {
	if err := r.obj.Call(logindReboot, 0, false).Err; err != nil {
		return fmt.Errorf("logind reboot (%s): %w", reason, err)
	}
	return nil
}

// Close releases the bus connection.
func (r *LogindRestarter) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// ProcessRestarter exits the process with a non-zero status so the service
// manager starts it again.
type ProcessRestarter struct {
	Exit func(code int)
}

// Restart exits with status 1.
func (r ProcessRestarter) Restart(reason string) error {
	exit := r.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
	return nil
}

// FallbackRestarter tries Primary and, if it refuses, Fallback.
type FallbackRestarter struct {
	Primary  Restarter
	Fallback Restarter
	Log      *zap.SugaredLogger
}

// Restart returns nil if either restarter accepted the request.
func (r FallbackRestarter) Restart(reason string) error {
	err := r.Primary.Restart(reason)
	if err == nil {
		return nil
	}
	if r.Log != nil {
		r.Log.Errorw("restart refused, falling back", "reason", reason, "error", err)
	}
	if ferr := r.Fallback.Restart(reason); ferr != nil {
		return multierr.Append(err, ferr)
	}
	return nil
}

// FakeRestarter records restarts.
type FakeRestarter struct {
	mu      sync.Mutex
	reasons []string
	err     error
	fired   chan struct{}
	once    sync.Once
}

// NewFakeRestarter creates a FakeRestarter.
func NewFakeRestarter() *FakeRestarter {
	return &FakeRestarter{fired: make(chan struct{})}
}

// Restart records the reason and returns the error set with SetError.
func (f *FakeRestarter) Restart(reason string) error {
	f.mu.Lock()
	f.reasons = append(f.reasons, reason)
	err := f.err
	f.mu.Unlock()
	f.once.Do(func() { close(f.fired) })
	return err
}

// SetError makes subsequent restarts fail with err.
func (f *FakeRestarter) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Count returns how many times Restart was called.
func (f *FakeRestarter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

// Reasons returns the recorded reasons in call order.
func (f *FakeRestarter) Reasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

// Fired is closed on the first Restart.
func (f *FakeRestarter) Fired() <-chan struct{} {
	return f.fired
}

// NotifyReady tells systemd the service finished starting. It is a no-op when
// not running under systemd.
func NotifyReady() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyReady)
}

// NotifyStopping tells systemd the service is shutting down.
func NotifyStopping() (bool, error) {
	return daemon.SdNotify(false, daemon.SdNotifyStopping)
}
