// internal/transport/url.go

package transport

import (
	"fmt"
	"net"
	"strings"
)

const (
	schemeInproc = "inproc"
	schemeTCP    = "tcp"
	schemeIPC    = "ipc"
)

// Endpoint is a parsed transport URL.
type Endpoint struct {
	Scheme  string
	Address string
}

// ParseURL accepts inproc://name, tcp://host:port and ipc:///path. A "*" host
// in a tcp URL means every interface.
func ParseURL(raw string) (Endpoint, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || rest == "" {
		return Endpoint{}, fmt.Errorf("invalid transport url '%s': expected scheme://address", raw)
	}
	switch scheme {
	case schemeInproc, schemeIPC:
		return Endpoint{Scheme: scheme, Address: rest}, nil
	case schemeTCP:
		host, port, err := net.SplitHostPort(rest)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid transport url '%s': %w", raw, err)
		}
		if host == "*" {
			host = "0.0.0.0"
		}
		return Endpoint{Scheme: scheme, Address: net.JoinHostPort(host, port)}, nil
	default:
		return Endpoint{}, fmt.Errorf("invalid transport url '%s': unsupported scheme '%s'", raw, scheme)
	}
}

func (e Endpoint) String() string {
	return e.Scheme + "://" + e.Address
}

// resolved renders the concrete address of a bound endpoint, with the
// OS-chosen port for tcp://host:0.
func (e Endpoint) resolved(addr net.Addr) string {
	if e.Scheme == schemeTCP && addr != nil {
		return schemeTCP + "://" + addr.String()
	}
	return e.String()
}
