// internal/iputil/iputil.go

package iputil

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseCIDRs parses IP addresses and CIDR ranges. A bare address becomes a
// single-host range.
func ParseCIDRs(values []string) ([]*net.IPNet, error) {
	if len(values) == 0 {
		return nil, nil
	}

	cidrs := make([]*net.IPNet, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if ip := net.ParseIP(value); ip != nil {
			bits := 128
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			cidrs = append(cidrs, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(value)
		if err != nil {
			return nil, fmt.Errorf("invalid IP/CIDR format: %s (%w)", value, err)
		}
		cidrs = append(cidrs, ipNet)
	}
	return cidrs, nil
}

// AllowList restricts access to a set of ranges. An empty list allows every
// address.
type AllowList struct {
	cidrs []*net.IPNet
}

// NewAllowList parses values with ParseCIDRs.
func NewAllowList(values []string) (*AllowList, error) {
	cidrs, err := ParseCIDRs(values)
	if err != nil {
		return nil, err
	}
	return &AllowList{cidrs: cidrs}, nil
}

// Allows reports whether ip may pass. A nil ip never passes a non-empty list.
func (a *AllowList) Allows(ip net.IP) bool {
	if len(a.cidrs) == 0 {
		return true
	}
	if ip == nil {
		return false
	}
	for _, cidr := range a.cidrs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// RemoteIP returns the address of the immediate peer of r. Forwarding
// headers are ignored: the admin API is not meant to sit behind a proxy.
func RemoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
