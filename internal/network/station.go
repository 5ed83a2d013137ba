package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultInterface is the wireless interface supervised by the monitor.
const DefaultInterface = "wlan0"

// Bring-up limits.
const (
	JoinTimeout      = 10 * time.Second
	JoinPollInterval = 100 * time.Millisecond
)

// ErrJoinTimeout is returned by BringUp when association does not complete in
// time. The caller is expected to restart the device.
var ErrJoinTimeout = errors.New("wifi: association timed out")

// Station is the Wi-Fi client owned by the network stack.
type Station interface {
	// Join configures the network and starts association. It does not wait
	// for association to complete.
	Join(ctx context.Context, creds Credentials) error

	// Connected reports whether the station is associated and has an address.
	Connected() bool

	// Disconnect drops the current association.
	Disconnect() error

	// Reconnect triggers a new association attempt without waiting for it.
	Reconnect() error
}

// BringUp joins the network and polls until the station reports connected.
// A failed Join is retried on every poll, so a supplicant that comes up late
// still gets the credentials. It returns ErrJoinTimeout if timeout elapses
// first, whether or not Join ever succeeded.
func BringUp(ctx context.Context, st Station, creds Credentials, timeout, poll time.Duration, log *zap.SugaredLogger) error {
	log.Infow("joining wifi", "ssid", creds.SSID)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	start := time.Now()
	joined := false
	var joinErr error
	for {
		if !joined {
			if err := st.Join(ctx, creds); err != nil {
				if joinErr == nil {
					log.Warnw("wifi join failed, retrying", "ssid", creds.SSID, "error", err)
				}
				joinErr = err
			} else {
				joined = true
				if joinErr != nil {
					log.Infow("wifi join accepted", "ssid", creds.SSID, "after", time.Since(start).Truncate(time.Millisecond))
				}
			}
		}
		if joined && st.Connected() {
			break
		}

		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			if !joined {
				log.Errorw("wifi timeout", "after", timeout, "error", joinErr)
				return fmt.Errorf("%w: join %q: %v", ErrJoinTimeout, creds.SSID, joinErr)
			}
			log.Errorw("wifi timeout", "after", timeout)
			return ErrJoinTimeout
		case <-ticker.C:
			log.Infow(".", "elapsed", time.Since(start).Truncate(time.Millisecond))
		}
	}

	log.Infow("wifi connected", "ssid", creds.SSID)
	return nil
}

// Recover forces a disconnect and a fresh association attempt if the station
// is not connected. It reports whether a reconnect was triggered.
func Recover(st Station) (bool, error) {
	if st.Connected() {
		return false, nil
	}
	err := st.Disconnect()
	return true, multierr.Append(err, st.Reconnect())
}
