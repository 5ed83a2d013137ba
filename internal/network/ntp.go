package network

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/multierr"
)

// NTP servers queried after association, in order.
var NTPServers = []string{"ntp.nict.jp", "ntp.jst.mfeed.ad.jp"}

// LocalZone is the fixed display zone for synchronised time (UTC+9).
var LocalZone = time.FixedZone("JST", 9*60*60)

// NTPTimeout bounds a single NTP query.
const NTPTimeout = 5 * time.Second

// NTPQuery queries one server.
type NTPQuery func(host string) (*ntp.Response, error)

// DefaultNTPQuery queries host with NTPTimeout.
func DefaultNTPQuery(host string) (*ntp.Response, error) {
	return ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: NTPTimeout})
}

// TimeSync is the outcome of a successful query.
type TimeSync struct {
	Server string
	Offset time.Duration
	Local  time.Time
}

// SyncTime queries servers in order and returns the first valid response.
// The result is informational; the system clock is left to the OS.
func SyncTime(servers []string, query NTPQuery) (TimeSync, error) {
	var errs error
	for _, host := range servers {
		resp, err := query(host)
		if err == nil {
			err = resp.Validate()
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}
		return TimeSync{
			Server: host,
			Offset: resp.ClockOffset,
			Local:  time.Now().Add(resp.ClockOffset).In(LocalZone),
		}, nil
	}
	if errs == nil {
		errs = fmt.Errorf("no ntp servers configured")
	}
	return TimeSync{}, fmt.Errorf("ntp sync: %w", errs)
}
