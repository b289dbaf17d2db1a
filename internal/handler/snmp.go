// internal/handler/snmp.go

package handler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/record"
)

const (
	oidSysUpTime   = ".1.3.6.1.2.1.1.3.0"
	oidSnmpTrapOID = ".1.3.6.1.6.3.1.1.4.1.0"
)

// SNMPHandler sends one SNMPv2c trap per record. The varbinds under the
// enterprise OID are .1 level, .2 logger, .3 location and .4 message.
type SNMPHandler struct {
	base
	mu      sync.Mutex
	client  *gosnmp.GoSNMP
	oid     string
	started time.Time
}

// NewSNMPHandler creates an SNMP trap handler.
func NewSNMPHandler(b base, s *config.Section) (*SNMPHandler, error) {
	if s.Target == "" {
		return nil, fmt.Errorf("snmp handler requires a target")
	}
	port := s.Port
	if port == 0 {
		port = config.DefaultSNMPPort
	}
	oid := s.EnterpriseOID
	if oid == "" {
		oid = config.DefaultEnterpriseOID
	}
	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}
	return &SNMPHandler{
		base: b,
		client: &gosnmp.GoSNMP{
			Target:    s.Target,
			Port:      uint16(port),
			Community: s.Community,
			Version:   gosnmp.Version2c,
			Timeout:   2 * time.Second,
			Retries:   1,
		},
		oid: oid,
	}, nil
}

func (h *SNMPHandler) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.client.Connect(); err != nil {
		return fmt.Errorf("connecting to snmp target %s:%d: %w", h.client.Target, h.client.Port, err)
	}
	h.started = time.Now()
	return nil
}

func (h *SNMPHandler) Handle(r *record.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	location := fmt.Sprintf("%s:%d@%s", r.Location.File, r.Location.Line, r.Location.Func)
	trap := gosnmp.SnmpTrap{
		Variables: []gosnmp.SnmpPDU{
			{Name: oidSysUpTime, Type: gosnmp.TimeTicks, Value: uint32(time.Since(h.started) / (10 * time.Millisecond))},
			{Name: oidSnmpTrapOID, Type: gosnmp.ObjectIdentifier, Value: h.oid},
			{Name: h.oid + ".1", Type: gosnmp.Integer, Value: int(r.Level)},
			{Name: h.oid + ".2", Type: gosnmp.OctetString, Value: r.Logger},
			{Name: h.oid + ".3", Type: gosnmp.OctetString, Value: location},
			{Name: h.oid + ".4", Type: gosnmp.OctetString, Value: r.Message},
		},
	}
	if _, err := h.client.SendTrap(trap); err != nil {
		return fmt.Errorf("sending snmp trap: %w", err)
	}
	return nil
}

func (h *SNMPHandler) Flush() error { return nil }

func (h *SNMPHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client.Conn == nil {
		return nil
	}
	err := h.client.Conn.Close()
	h.client.Conn = nil
	return err
}
