package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/transport"
)

func recvMessage(t *testing.T, sub *transport.Subscriber) transport.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := sub.Recv(ctx)
	require.NoError(t, err)
	return msg
}

func TestRemoteHandlerConnect(t *testing.T) {
	sub := transport.NewSubscriber("receiver", nil)
	defer sub.Close()
	sub.Subscribe("")
	url, err := sub.Bind("inproc://" + t.Name())
	require.NoError(t, err)

	h, err := New("remote", config.Remote(":lowest", url, false, 1), filter.MustParse(":lowest"), "prog")
	require.NoError(t, err)
	require.NoError(t, h.Open())
	remote := h.(*RemoteHandler)

	sent := newRecord("app.db", level.NOTICE, "over the wire")
	require.NoError(t, h.Handle(sent))

	msg := recvMessage(t, sub)
	assert.Equal(t, remote.ID(), msg.Peer)
	assert.Equal(t, "L|LTFDION", string(msg.Parts[0]))
	got, err := record.Decode(msg.Parts)
	require.NoError(t, err)
	assert.Equal(t, sent.Message, got.Message)
	assert.Equal(t, sent.Logger, got.Logger)
	assert.True(t, sent.Time.Equal(got.Time))

	require.NoError(t, h.Close())
	msg = recvMessage(t, sub)
	assert.True(t, record.IsEndOfStream(msg.Parts[0]))
	assert.Equal(t, remote.ID(), string(msg.Parts[1]))
	assert.True(t, recvMessage(t, sub).Gone)
}

func TestRemoteHandlerBind(t *testing.T) {
	h, err := New("remote", config.Remote(":lowest", "tcp://127.0.0.1:0", true, 0), filter.MustParse(":lowest"), "prog")
	require.NoError(t, err)
	require.NoError(t, h.Open())
	defer h.Close()
	remote := h.(*RemoteHandler)

	urls := remote.BoundURLs()
	require.Len(t, urls, 1)
	assert.NotEqual(t, "tcp://127.0.0.1:0", urls[0])

	sub := transport.NewSubscriber("receiver", nil)
	defer sub.Close()
	sub.Subscribe(record.DataHeader)
	require.NoError(t, sub.Connect(urls[0]))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, remote.pub.WaitPeers(ctx, 1))

	require.NoError(t, h.Handle(newRecord("x", level.ERROR, "bound")))
	got, err := record.Decode(recvMessage(t, sub).Parts)
	require.NoError(t, err)
	assert.Equal(t, level.ERROR, got.Level)
}

func TestRemoteHandlerSyncTimeout(t *testing.T) {
	reports := captureReports(t)
	s := config.Remote(":lowest", "inproc://"+t.Name(), true, 1)
	s.SyncTimeout = "50ms"
	h, err := New("remote", s, filter.MustParse(":lowest"), "prog")
	require.NoError(t, err)

	require.NoError(t, h.Open(), "a failed synchronization does not fail the handler")
	defer h.Close()
	assert.Contains(t, reports.String(), "synchronization with inproc://")
	assert.NoError(t, h.Handle(newRecord("x", level.INFO, "nobody listens")))
}
