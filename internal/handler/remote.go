// internal/handler/remote.go

package handler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/report"
	"github.com/orgoj/logbridge/internal/transport"
)

// RemoteHandler publishes records to Receivers over the pub/sub transport.
type RemoteHandler struct {
	base
	url         string
	bind        bool
	syncNb      int
	syncTimeout time.Duration
	pub         *transport.Publisher
}

// NewRemoteHandler creates a remote handler; sockets are set up by Open.
func NewRemoteHandler(b base, s *config.Section, program string) (*RemoteHandler, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("remote handler requires a url")
	}
	timeout := time.Second
	if s.SyncTimeout != "" {
		d, err := config.ParseDuration(s.SyncTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid sync_timeout '%s': %w", s.SyncTimeout, err)
		}
		timeout = d
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	id := fmt.Sprintf("%s:%d:%s:%s:%x", host, os.Getpid(), program, b.name, time.Now().UnixNano())
	return &RemoteHandler{
		base:        b,
		url:         s.URL,
		bind:        s.Bind,
		syncNb:      s.SyncNb,
		syncTimeout: timeout,
		pub:         transport.NewPublisher(id),
	}, nil
}

// ID returns the publisher identity announced to receivers.
func (h *RemoteHandler) ID() string { return h.pub.ID() }

// BoundURLs returns the concrete urls when the handler binds.
func (h *RemoteHandler) BoundURLs() []string { return h.pub.BoundURLs() }

// Open binds or connects, then waits for sync_nb receivers. A handshake that
// times out is reported and publishing starts anyway.
func (h *RemoteHandler) Open() error {
	if h.bind {
		if _, err := h.pub.Bind(h.url); err != nil {
			return fmt.Errorf("binding %s: %w", h.url, err)
		}
	} else if err := h.pub.Connect(h.url); err != nil {
		return fmt.Errorf("connecting %s: %w", h.url, err)
	}

	if h.syncNb > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), h.syncTimeout)
		defer cancel()
		if err := h.pub.WaitPeers(ctx, h.syncNb); err != nil {
			report.Warnf("remote handler '%s': synchronization with %s failed: %v", h.name, h.url, err)
		}
	}
	return nil
}

func (h *RemoteHandler) Handle(r *record.Record) error {
	parts, err := record.Encode(r)
	if err != nil {
		return err
	}
	return h.pub.Send(parts...)
}

func (h *RemoteHandler) Flush() error { return nil }

// Close announces the end of the stream, then tears the sockets down.
func (h *RemoteHandler) Close() error {
	err := h.pub.Send(record.EndOfStream(h.pub.ID())...)
	if closeErr := h.pub.Close(); err == nil {
		err = closeErr
	}
	return err
}
