// Package network manages the Wi-Fi side of the monitor: reading the station
// credentials, joining the network at boot, supervising the link afterwards
// and querying NTP once associated.
package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultCredentialsPath is where the credential record is read from at boot.
const DefaultCredentialsPath = "/boot/wifi.csv"

// ErrShortCredentials is returned when the record does not carry both fields.
var ErrShortCredentials = errors.New("credentials: expected two label,value lines")

// Credentials identify the wireless network to join.
type Credentials struct {
	SSID       string
	Passphrase string
}

// ParseCredentials reads a record of the form
//
//	SSID,<ssid>\r\n
//	PASS,<passphrase>\r\n
//
// The labels are not checked. Each line is split at its first comma and the
// value is kept as written up to the line end, so quotes, commas and
// surrounding spaces survive.
func ParseCredentials(r io.Reader) (Credentials, error) {
	sc := bufio.NewScanner(r)

	var values []string
	for len(values) < 2 && sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		_, value, ok := strings.Cut(line, ",")
		if !ok {
			return Credentials{}, ErrShortCredentials
		}
		values = append(values, value)
	}
	if err := sc.Err(); err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	if len(values) < 2 {
		return Credentials{}, ErrShortCredentials
	}

	return Credentials{SSID: values[0], Passphrase: values[1]}, nil
}

// LoadCredentials opens path and parses it with ParseCredentials.
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()
	return ParseCredentials(f)
}
