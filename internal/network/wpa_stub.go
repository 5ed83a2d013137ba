//go:build !linux

package network

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("network: not supported on this platform (requires Linux)")

// WPAStation is not available on non-Linux platforms.
type WPAStation struct{}

// NewWPAStation returns an error on non-Linux platforms.
func NewWPAStation(ctx context.Context, ifname string) (*WPAStation, error) {
	return nil, errUnsupported
}

// Join is not implemented on non-Linux platforms.
func (s *WPAStation) Join(ctx context.Context, creds Credentials) error { return errUnsupported }

// Connected always reports false on non-Linux platforms.
func (s *WPAStation) Connected() bool { return false }

// Disconnect is not implemented on non-Linux platforms.
func (s *WPAStation) Disconnect() error { return errUnsupported }

// Reconnect is not implemented on non-Linux platforms.
func (s *WPAStation) Reconnect() error { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (s *WPAStation) Close() error { return nil }
