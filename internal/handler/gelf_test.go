package handler

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
)

func TestGelfHandlerUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	s := &config.Section{
		Module:      config.ModuleGELF,
		Host:        "127.0.0.1",
		Port:        pc.LocalAddr().(*net.UDPAddr).Port,
		Protocol:    "udp",
		Compression: "none",
	}
	h, err := New("graylog", s, filter.MustParse(":lowest"), "prog")
	require.NoError(t, err)
	require.NoError(t, h.Open())
	defer h.Close()

	require.NoError(t, h.Handle(newRecord("app.db", level.WARNING, "first\nsecond")))

	buf := make([]byte, 8192)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "first", msg["short_message"])
	assert.Equal(t, "first\nsecond", msg["full_message"])
	assert.Equal(t, float64(4), msg["level"])
	assert.Equal(t, "app.db", msg["_logger"])
	assert.Equal(t, "warning", msg["_level"])
	assert.Equal(t, "prog", msg["_program"])
}

func TestGelfHandlerWriterFailure(t *testing.T) {
	origUDP, origTCP := gelfUDPWriterFactory, gelfTCPWriterFactory
	defer func() { gelfUDPWriterFactory, gelfTCPWriterFactory = origUDP, origTCP }()

	gelfUDPWriterFactory = func(string) (*gelf.UDPWriter, error) { return nil, errors.New("no route") }
	gelfTCPWriterFactory = func(string) (*gelf.TCPWriter, error) { return nil, errors.New("refused") }

	tests := []struct {
		protocol string
		wantErr  string
	}{
		{protocol: "udp", wantErr: "failed to create GELF UDP writer: no route"},
		{protocol: "tcp", wantErr: "failed to create GELF TCP writer: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			s := &config.Section{Module: config.ModuleGELF, Host: "graylog", Port: 12201, Protocol: tt.protocol}
			h, err := New("graylog", s, filter.MustParse(":lowest"), "prog")
			require.NoError(t, err)
			err = h.Open()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.NoError(t, h.Close())
		})
	}
}
