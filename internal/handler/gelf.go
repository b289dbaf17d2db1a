// internal/handler/gelf.go

package handler

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/Graylog2/go-gelf.v2/gelf"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/record"
)

// Variables for factories to allow mocking in tests
var gelfUDPWriterFactory = gelf.NewUDPWriter
var gelfTCPWriterFactory = gelf.NewTCPWriter

// GelfHandler sends records to a Graylog server.
type GelfHandler struct {
	base
	addr        string
	protocol    string
	compression string
	hostName    string
	writer      gelf.Writer
}

// NewGelfHandler creates a GELF handler; the writer is created by Open.
func NewGelfHandler(b base, s *config.Section) (*GelfHandler, error) {
	if s.Host == "" {
		return nil, fmt.Errorf("host is required for GELF handler")
	}
	if s.Port <= 0 {
		return nil, fmt.Errorf("valid port is required for GELF handler")
	}
	hostName, err := os.Hostname()
	if err != nil {
		hostName = "unknown"
	}
	return &GelfHandler{
		base:        b,
		addr:        fmt.Sprintf("%s:%d", s.Host, s.Port),
		protocol:    s.Protocol,
		compression: s.Compression,
		hostName:    hostName,
	}, nil
}

func (g *GelfHandler) Open() error {
	if g.protocol == "tcp" {
		w, err := gelfTCPWriterFactory(g.addr)
		if err != nil {
			return fmt.Errorf("failed to create GELF TCP writer: %w", err)
		}
		g.writer = w
		return nil
	}

	w, err := gelfUDPWriterFactory(g.addr)
	if err != nil {
		return fmt.Errorf("failed to create GELF UDP writer: %w", err)
	}
	switch g.compression {
	case "gzip":
		w.CompressionType = gelf.CompressGzip
	case "zlib":
		w.CompressionType = gelf.CompressZlib
	default:
		w.CompressionType = gelf.CompressNone
	}
	g.writer = w
	return nil
}

// Handle maps the record onto a GELF 1.1 message: the first line is the short
// message, the whole text the full message when it spans several lines.
func (g *GelfHandler) Handle(r *record.Record) error {
	lines := r.Lines()
	msg := &gelf.Message{
		Version:  "1.1",
		Host:     g.hostName,
		Short:    lines[0],
		TimeUnix: float64(r.Time.UnixNano()) / 1e9,
		Level:    int32(syslogSeverity(r.Level)),
		Extra: map[string]interface{}{
			"_logger":  r.Logger,
			"_level":   r.Level.String(),
			"_file":    r.Location.File,
			"_line":    r.Location.Line,
			"_func":    r.Location.Func,
			"_pid":     r.PID,
			"_program": r.Program,
		},
	}
	if len(lines) > 1 {
		msg.Full = strings.Join(lines, "\n")
	}
	return g.writer.WriteMessage(msg)
}

func (g *GelfHandler) Flush() error { return nil }

func (g *GelfHandler) Close() error {
	if g.writer == nil {
		return nil
	}
	return g.writer.Close()
}
