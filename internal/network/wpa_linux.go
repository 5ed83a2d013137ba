//go:build linux

package network

import (
	"context"
	"fmt"
	"net"

	"github.com/godbus/dbus/v5"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
)

// wpa_supplicant D-Bus names.
const (
	wpaService   = "fi.w1.wpa_supplicant1"
	wpaPath      = dbus.ObjectPath("/fi/w1/wpa_supplicant1")
	wpaIface     = "fi.w1.wpa_supplicant1"
	wpaIfaceIntf = "fi.w1.wpa_supplicant1.Interface"

	wpaStateCompleted = "completed"
)

// WPAStation drives wpa_supplicant over the system D-Bus and reads link state
// through netlink.
type WPAStation struct {
	ifname string
	conn   *dbus.Conn
	iface  dbus.BusObject
}

// NewWPAStation connects to the system bus and resolves the wpa_supplicant
// object for ifname.
func NewWPAStation(ctx context.Context, ifname string) (*WPAStation, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	var path dbus.ObjectPath
	call := conn.Object(wpaService, wpaPath).CallWithContext(ctx, wpaIface+".GetInterface", 0, ifname)
	if err := call.Store(&path); err != nil {
		conn.Close()
		return nil, fmt.Errorf("wpa_supplicant interface %s: %w", ifname, err)
	}

	return &WPAStation{
		ifname: ifname,
		conn:   conn,
		iface:  conn.Object(wpaService, path),
	}, nil
}

// Join replaces any configured networks with creds and selects it.
func (s *WPAStation) Join(ctx context.Context, creds Credentials) error {
	if err := s.iface.CallWithContext(ctx, wpaIfaceIntf+".RemoveAllNetworks", 0).Err; err != nil {
		return fmt.Errorf("remove networks: %w", err)
	}

	args := map[string]dbus.Variant{
		"ssid": dbus.MakeVariant(creds.SSID),
		"psk":  dbus.MakeVariant(creds.Passphrase),
	}
	var netPath dbus.ObjectPath
	if err := s.iface.CallWithContext(ctx, wpaIfaceIntf+".AddNetwork", 0, args).Store(&netPath); err != nil {
		return fmt.Errorf("add network: %w", err)
	}
	if err := s.iface.CallWithContext(ctx, wpaIfaceIntf+".SelectNetwork", 0, netPath).Err; err != nil {
		return fmt.Errorf("select network: %w", err)
	}
	return nil
}

// Connected reports true when wpa_supplicant has completed association, the
// link is operationally up and it carries an IPv4 address.
func (s *WPAStation) Connected() bool {
	v, err := s.iface.GetProperty(wpaIfaceIntf + ".State")
	if err != nil {
		return false
	}
	if state, _ := v.Value().(string); state != wpaStateCompleted {
		return false
	}

	link, err := netlink.LinkByName(s.ifname)
	if err != nil {
		return false
	}
	attrs := link.Attrs()
	if attrs.Flags&net.FlagUp == 0 || attrs.OperState != netlink.OperUp {
		return false
	}
	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	return err == nil && len(addrs) > 0
}

// Disconnect drops the current association.
func (s *WPAStation) Disconnect() error {
	if err := s.iface.Call(wpaIfaceIntf+".Disconnect", 0).Err; err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Reconnect brings the link up if needed and asks wpa_supplicant to
// associate again. It returns as soon as the request is accepted.
func (s *WPAStation) Reconnect() error {
	var err error
	if link, lerr := netlink.LinkByName(s.ifname); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("lookup %s: %w", s.ifname, lerr))
	} else if link.Attrs().Flags&net.FlagUp == 0 {
		if uerr := netlink.LinkSetUp(link); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("set %s up: %w", s.ifname, uerr))
		}
	}
	if cerr := s.iface.Call(wpaIfaceIntf+".Reconnect", 0).Err; cerr != nil {
		err = multierr.Append(err, fmt.Errorf("reconnect: %w", cerr))
	}
	return err
}

// Close releases the bus connection.
func (s *WPAStation) Close() error {
	return s.conn.Close()
}
