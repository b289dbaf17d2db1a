package handler

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/orgoj/logbridge/internal/level"
	"github.com/orgoj/logbridge/internal/report"
)

func captureReports(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	prev := report.Default().SetOutput(buf)
	report.Default().SetLimit(rate.Inf, 1)
	t.Cleanup(func() {
		report.Default().SetOutput(prev)
		report.Default().SetLimit(rate.Every(100*time.Millisecond), 10)
	})
	return buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestChainDispatchesByFilter(t *testing.T) {
	console := newMemHandler("console", ":output")
	file := newMemHandler("file", ":debug,noisy:off")
	chain := NewChain([]Handler{console, file}, 16)

	chain.Dispatch(newRecord("app", level.OUTPUT, "both"))
	chain.Dispatch(newRecord("app", level.DEBUG, "file only"))
	chain.Dispatch(newRecord("noisy.x", level.ERROR, "console only"))
	chain.Dispatch(newRecord("app", level.TRACE, "nobody"))
	require.NoError(t, chain.Flush())

	assert.Equal(t, []string{"both", "console only"}, console.messages())
	assert.Equal(t, []string{"both", "file only"}, file.messages())
	assert.Equal(t, 1, console.flushes)

	require.NoError(t, chain.Close(true))
	assert.True(t, console.closed)
	assert.True(t, file.closed)
}

func TestChainPreservesOrder(t *testing.T) {
	h := newMemHandler("mem", ":lowest")
	chain := NewChain([]Handler{h}, 4)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				chain.Dispatch(newRecord(fmt.Sprintf("g%d", g), level.INFO, fmt.Sprintf("%d", i)))
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, chain.Close(true))

	next := map[string]int{}
	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.records, 200)
	for _, r := range h.records {
		assert.Equal(t, fmt.Sprintf("%d", next[r.Logger]), r.Message, "out of order for %s", r.Logger)
		next[r.Logger]++
	}
}

func TestChainHandlerFailureIsIsolated(t *testing.T) {
	reports := captureReports(t)
	failing := newMemHandler("failing", ":lowest")
	failing.failOn = "boom"
	healthy := newMemHandler("healthy", ":lowest")
	chain := NewChain([]Handler{failing, healthy}, 16)

	chain.Dispatch(newRecord("x", level.ERROR, "boom"))
	chain.Dispatch(newRecord("x", level.ERROR, "after"))
	require.NoError(t, chain.Flush())

	assert.Equal(t, []string{"after"}, failing.messages())
	assert.Equal(t, []string{"boom", "after"}, healthy.messages())
	assert.Contains(t, reports.String(), "handler 'failing' (mem): sink failure")

	stats := chain.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(1), stats[0].Failed)
	assert.Equal(t, uint64(1), stats[0].Handled)
	assert.Equal(t, uint64(2), stats[1].Handled)

	require.NoError(t, chain.Close(true))
	assert.Contains(t, reports.String(), "1 record(s) lost")
}

func TestChainCloseWithoutFlushDrops(t *testing.T) {
	captureReports(t)
	h := newMemHandler("slow", ":lowest")
	h.blockOn = make(chan struct{})
	chain := NewChain([]Handler{h}, 16)

	for i := 0; i < 5; i++ {
		chain.Dispatch(newRecord("x", level.INFO, "m"))
	}

	done := make(chan error)
	go func() { done <- chain.Close(false) }()
	close(h.blockOn)
	require.NoError(t, <-done)

	stats := chain.Stats()[0]
	assert.Equal(t, uint64(5), stats.Handled+stats.Dropped)
	assert.Equal(t, 0, h.flushes)
	assert.True(t, h.closed)
}

func TestChainClosedIsInert(t *testing.T) {
	h := newMemHandler("mem", ":lowest")
	chain := NewChain([]Handler{h}, 1)
	require.NoError(t, chain.Close(true))

	chain.Dispatch(newRecord("x", level.INFO, "late"))
	assert.NoError(t, chain.Flush())
	assert.NoError(t, chain.Close(true))
	assert.Empty(t, h.messages())
	assert.Len(t, chain.Handlers(), 1)
}
