package handler

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
)

func TestSNMPHandlerSendsTrap(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	s := &config.Section{
		Module:        config.ModuleSNMP,
		Target:        "127.0.0.1",
		Port:          pc.LocalAddr().(*net.UDPAddr).Port,
		Community:     "s3cret",
		EnterpriseOID: "1.3.6.1.4.1.99999",
	}
	h, err := New("snmp", s, filter.MustParse(":critical"), "prog")
	require.NoError(t, err)
	assert.Equal(t, ".1.3.6.1.4.1.99999", h.(*SNMPHandler).oid)
	require.NoError(t, h.Open())

	require.NoError(t, h.Handle(newRecord("app.db", level.CRITICAL, "disk full")))

	buf := make([]byte, 4096)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	packet := string(buf[:n])
	assert.Contains(t, packet, "s3cret")
	assert.Contains(t, packet, "app.db")
	assert.Contains(t, packet, "main.go:12@main.main")
	assert.Contains(t, packet, "disk full")

	assert.NoError(t, h.Close())
	assert.NoError(t, h.Close())
}

func TestSNMPHandlerRequiresTarget(t *testing.T) {
	_, err := New("snmp", &config.Section{Module: config.ModuleSNMP}, filter.MustParse(":critical"), "prog")
	assert.Error(t, err)
}
