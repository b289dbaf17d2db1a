package logbridge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/transport"
)

func startReceiver(t *testing.T, path, url string) (*Context, *Receiver) {
	t.Helper()
	rctx := startContext(t, fileConfig(path, ":lowest"))
	recv := NewReceiver(rctx, []string{url}, true)
	require.NoError(t, recv.Start())
	t.Cleanup(func() { _ = recv.Stop(false) })
	return rctx, recv
}

// rawPublisher connects a bare transport publisher to url and waits for the
// receiver handshake.
func rawPublisher(t *testing.T, url, id string) *transport.Publisher {
	t.Helper()
	pub := transport.NewPublisher(id)
	require.NoError(t, pub.Connect(url))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pub.WaitPeers(ctx, 1))
	return pub
}

func TestReceiverForwardsRemoteRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "central.log")
	url := "inproc://" + t.Name()
	rctx, recv := startReceiver(t, path, url)

	cfg := testConfig()
	cfg.Program = "publisher"
	cfg.Add("remote", RemoteSection(":lowest", url, false, 1))
	pctx := New()
	require.NoError(t, pctx.Configure(cfg))
	require.NoError(t, pctx.Init())

	l := pctx.Logger("remote.app")
	for i := 0; i < 25; i++ {
		require.NoError(t, l.Info("record %d", i))
	}
	require.NoError(t, pctx.Cleanup(true))
	require.NoError(t, recv.Stop(true))

	lines := readLines(t, path)
	require.Len(t, lines, 25)
	for i, line := range lines {
		assert.True(t, strings.HasPrefix(line, "I|"), line)
		assert.Contains(t, line, ":publisher|")
		assert.True(t, strings.HasSuffix(line, fmt.Sprintf("|remote.app|record %d", i)), line)
	}

	stats := recv.Stats()
	assert.Equal(t, uint64(25), stats.Received)
	assert.Equal(t, uint64(0), stats.Dropped)
	assert.Equal(t, 1, stats.Publishers)
	assert.Equal(t, 1, stats.Exited)
	assert.Equal(t, 0, stats.Lost)
	for _, registered := range rctx.Loggers() {
		assert.NotEqual(t, "remote.app", registered.Name(), "remote loggers are not registered")
	}
}

func TestReceiverAppliesLocalFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "central.log")
	url := "inproc://" + t.Name()
	rctx := startContext(t, fileConfig(path, ":warning"))
	recv := NewReceiver(rctx, []string{url}, true)
	require.NoError(t, recv.Start())

	pub := rawPublisher(t, url, "pub-1")
	for _, lv := range []Level{ERROR, INFO, WARNING, DEBUG} {
		parts, err := record.Encode(&record.Record{
			Time:    time.Now(),
			Level:   lv,
			Logger:  "remote",
			Message: lv.String(),
			PID:     7,
			Program: "far",
		})
		require.NoError(t, err)
		require.NoError(t, pub.Send(parts...))
	}
	require.NoError(t, pub.Send(record.EndOfStream(pub.ID())...))
	require.NoError(t, recv.Stop(true))
	_ = pub.Close()

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "|7:far|")
	assert.True(t, strings.HasSuffix(lines[0], "|remote|error"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "|remote|warning"), lines[1])
	assert.Equal(t, uint64(2), recv.Stats().Received, "info and debug are not subscribed")
}

func TestReceiverDropsMalformedFrames(t *testing.T) {
	reports := captureReports(t)
	path := filepath.Join(t.TempDir(), "central.log")
	url := "inproc://" + t.Name()
	_, recv := startReceiver(t, path, url)

	pub := rawPublisher(t, url, "bad-publisher")
	require.NoError(t, pub.Send([]byte(record.DataTopic(INFO)), []byte("a"), []byte("b")))
	require.NoError(t, pub.Send(record.EndOfStream(pub.ID())...))
	require.NoError(t, recv.Stop(true))
	_ = pub.Close()

	stats := recv.Stats()
	assert.Equal(t, uint64(0), stats.Received)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 1, stats.Exited)
	assert.Contains(t, reports.String(), "dropping frame from bad-publisher")
	assert.Empty(t, readLines(t, path))
}

func TestReceiverLostPublisher(t *testing.T) {
	reports := captureReports(t)
	path := filepath.Join(t.TempDir(), "central.log")
	url := "inproc://" + t.Name()
	_, recv := startReceiver(t, path, url)

	pub := rawPublisher(t, url, "vanishing")
	require.NoError(t, pub.Close())
	require.NoError(t, recv.Stop(true))

	stats := recv.Stats()
	assert.Equal(t, 1, stats.Publishers)
	assert.Equal(t, 1, stats.Lost)
	assert.Equal(t, 0, stats.Exited)
	assert.Contains(t, reports.String(), "publisher vanishing disconnected without end of stream")
}

func TestReceiverStopWithoutWaiting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "central.log")
	url := "inproc://" + t.Name()
	_, recv := startReceiver(t, path, url)

	pub := rawPublisher(t, url, "still-running")
	defer pub.Close()

	done := make(chan error, 1)
	go func() { done <- recv.Stop(false) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop(false) blocked on an active publisher")
	}
	assert.NoError(t, recv.Stop(true), "second stop is a no-op")
}

func TestReceiverStartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "central.log")
	_, recv := startReceiver(t, path, "tcp://127.0.0.1:0")

	assert.Error(t, recv.Start())
	bound := recv.BoundURLs()
	require.Len(t, bound, 1)
	assert.True(t, strings.HasPrefix(bound[0], "tcp://127.0.0.1:"), bound[0])
	assert.NotEqual(t, "tcp://127.0.0.1:0", bound[0])
}

func TestReceiverConnectsToBindingPublisher(t *testing.T) {
	cfg := testConfig()
	cfg.Add("remote", RemoteSection(":lowest", "tcp://127.0.0.1:0", true, 0))
	pctx := startContext(t, cfg)

	bound := pctx.BoundURLs()
	require.Len(t, bound["remote"], 1)
	url := bound["remote"][0]
	assert.NotEqual(t, "tcp://127.0.0.1:0", url)

	path := filepath.Join(t.TempDir(), "central.log")
	rctx := startContext(t, fileConfig(path, ":lowest"))
	recv := NewReceiver(rctx, []string{url}, false)
	require.NoError(t, recv.Start())

	require.Eventually(t, func() bool {
		_ = pctx.Logger("bound").Warning("ping")
		_ = pctx.Flush()
		return recv.Stats().Received > 0
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, pctx.Cleanup(true))
	require.NoError(t, recv.Stop(true))
	lines := readLines(t, path)
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasSuffix(lines[0], "|bound|ping"), lines[0])
}
