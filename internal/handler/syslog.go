// internal/handler/syslog.go

package handler

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RackSec/srslog"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/record"
)

// SyslogHandler sends RFC 3164 messages to the local syslog daemon or to a
// network collector.
type SyslogHandler struct {
	base
	mu       sync.Mutex
	facility srslog.Priority
	ident    string
	withPID  bool
	network  string
	address  string
	hostname string
	stamp    time.Time // time of the record being written
	w        *srslog.Writer
}

// NewSyslogHandler creates a syslog handler; ident defaults to program.
func NewSyslogHandler(b base, s *config.Section, program string) (*SyslogHandler, error) {
	facility, ok := config.SyslogFacilities[strings.ToLower(s.Facility)]
	if !ok {
		return nil, fmt.Errorf("unknown syslog facility '%s'", s.Facility)
	}
	ident := s.Ident
	if ident == "" {
		ident = program
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &SyslogHandler{
		base:     b,
		facility: srslog.Priority(facility << 3),
		ident:    ident,
		withPID:  s.WithPID(),
		network:  s.Network,
		address:  s.Address,
		hostname: hostname,
	}, nil
}

// Open dials the collector; without a network the local syslog sockets are
// probed.
func (h *SyslogHandler) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := srslog.Dial(h.network, h.address, h.facility|srslog.LOG_INFO, h.ident)
	if err != nil {
		if h.network == "" {
			return fmt.Errorf("no local syslog socket: %w", err)
		}
		return fmt.Errorf("connecting to syslog %s://%s: %w", h.network, h.address, err)
	}
	w.SetFormatter(h.format)
	h.w = w
	return nil
}

// format renders the RFC 3164 header; local sockets get no hostname.
func (h *SyslogHandler) format(p srslog.Priority, hostname, tag, content string) string {
	if h.withPID {
		tag = fmt.Sprintf("%s[%d]", tag, os.Getpid())
	}
	ts := h.stamp.Format(time.Stamp)
	if h.network == "" || strings.HasPrefix(h.network, "unix") {
		return fmt.Sprintf("<%d>%s %s: %s", p, ts, tag, content)
	}
	return fmt.Sprintf("<%d>%s %s %s: %s", p, ts, h.hostname, tag, content)
}

// Handle sends one message per message line; srslog reconnects once on a
// failed write.
func (h *SyslogHandler) Handle(r *record.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		return fmt.Errorf("syslog handler '%s' is closed", h.name)
	}

	h.stamp = r.Time
	pri := h.facility | srslog.Priority(syslogSeverity(r.Level))
	for _, line := range r.Lines() {
		if _, err := h.w.WriteWithPriority(pri, []byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func (h *SyslogHandler) Flush() error { return nil }

func (h *SyslogHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		return nil
	}
	err := h.w.Close()
	h.w = nil
	return err
}
