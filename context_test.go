package logbridge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/orgoj/logbridge/internal/report"
)

// testConfig returns a configuration without signal handling.
func testConfig() *Configuration {
	cfg := NewConfig()
	cfg.SetSigHandler = false
	return cfg
}

func fileConfig(path, filters string) *Configuration {
	return testConfig().Add("file", FileSection(filters, path, false))
}

// startContext configures and initializes a context released at test end.
func startContext(t *testing.T, cfg *Configuration) *Context {
	t.Helper()
	c := New()
	require.NoError(t, c.Configure(cfg))
	require.NoError(t, c.Init())
	t.Cleanup(func() { _ = c.Cleanup(false) })
	return c
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
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

func TestFileScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.log")
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0644))

	c := startContext(t, fileConfig(path, ":output"))
	require.NoError(t, c.Logger("x").Output("hello"))
	require.NoError(t, c.Logger("x").Info("filtered out"))
	require.NoError(t, c.Flush())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "hello"), lines[0])
	assert.True(t, strings.HasPrefix(lines[0], "O|"), lines[0])
	assert.Contains(t, lines[0], "|x|hello")
}

func TestLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "life.log")
	c := New()
	assert.Equal(t, Unconfigured, c.State())
	assert.NoError(t, c.Cleanup(true), "cleanup before init is a no-op")

	require.NoError(t, c.Configure(fileConfig(path, ":output")))
	assert.Equal(t, Configured, c.State())

	err := c.Configure(fileConfig(path, ":debug"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	var already *AlreadyInitializedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, Configured, already.State)
	assert.Contains(t, string(already.Stack), "TestLifecycle")

	require.NoError(t, c.Init())
	assert.Equal(t, Initialized, c.State())
	assert.True(t, c.IsConfigured())
	assert.ErrorIs(t, c.Init(), ErrAlreadyInitialized)
	assert.ErrorIs(t, c.Configure(fileConfig(path, ":debug")), ErrAlreadyInitialized)

	require.NoError(t, c.Cleanup(true))
	assert.Equal(t, Finalized, c.State())
	assert.Nil(t, c.Config())
	assert.Empty(t, c.Loggers())
	assert.NoError(t, c.Cleanup(true))

	require.NoError(t, c.Configure(fileConfig(path, ":debug")))
	require.NoError(t, c.Init())
	assert.Equal(t, DEBUG, c.Logger("any").Level())
	require.NoError(t, c.Cleanup(true))
}

func TestConfigureValidates(t *testing.T) {
	c := New()
	cfg := testConfig().Add("console", ConsoleSection(":output", "warning", "rainbow"))
	err := c.Configure(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, Unconfigured, c.State())

	cfg = testConfig().Add("console", ConsoleSection("output", "warning", "none"))
	assert.Error(t, c.Configure(cfg))
}

func TestConfigureCopiesConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.log")
	cfg := fileConfig(path, ":output")
	c := startContext(t, cfg)

	cfg.Sections["file"].Filters = ":lowest"
	assert.Equal(t, OUTPUT, c.Logger("x").Level())
	assert.Equal(t, ":output", c.Config().Sections["file"].Filters)
}

func TestLazyInitialization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy.log")
	c := New()
	require.NoError(t, c.Configure(fileConfig(path, ":info")))

	log := c.Logger("lazy")
	assert.Equal(t, Initialized, c.State())
	require.NoError(t, log.Info("first record"))

	err := c.Configure(fileConfig(path, ":debug"))
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	require.NoError(t, c.Cleanup(true))
	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "|lazy|first record"))
}

func TestHandlerInitError(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.log")
	bad := filepath.Join(dir, "missing", "bad.log")
	cfg := testConfig().
		Add("good", FileSection(":output", good, false)).
		Add("bad", FileSection(":output", bad, false))

	c := New()
	require.NoError(t, c.Configure(cfg))
	err := c.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerInit)

	var initErr *HandlerInitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, "bad", initErr.Section)
	assert.Equal(t, "file", initErr.Module)
	assert.Contains(t, err.Error(), "handler 'bad' (file)")

	assert.Equal(t, Configured, c.State())
	assert.Nil(t, c.Stats(), "no handler is left active")
	assert.NoError(t, c.Flush())
	_, statErr := os.Stat(filepath.Dir(bad))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanupDropsPendingConfiguration(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.log")

	t.Run("configured only", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Configure(fileConfig(good, ":output")))
		require.NoError(t, c.Cleanup(true))
		assert.Equal(t, Finalized, c.State())
		assert.Nil(t, c.Config())

		require.NoError(t, c.Configure(fileConfig(good, ":debug")))
		assert.Equal(t, ":debug", c.Config().Sections["file"].Filters)
	})

	t.Run("failed init", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Configure(fileConfig(filepath.Join(dir, "missing", "bad.log"), ":output")))
		require.ErrorIs(t, c.Init(), ErrHandlerInit)
		assert.Equal(t, Configured, c.State())

		require.NoError(t, c.Cleanup(true))
		require.NoError(t, c.Configure(fileConfig(good, ":output")))
		require.NoError(t, c.Init())
		defer c.Cleanup(false)
		require.NoError(t, c.Logger("recovered").Output("after recovery"))
		require.NoError(t, c.Flush())

		lines := readLines(t, good)
		require.Len(t, lines, 1)
		assert.True(t, strings.HasSuffix(lines[0], "|recovered|after recovery"))
	})
}

func TestInitWithoutHandlers(t *testing.T) {
	reports := captureReports(t)
	c := startContext(t, testConfig())

	assert.Contains(t, reports.String(), "no handler defined")
	stats := c.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "null", stats[0].Module)
	require.NoError(t, c.Logger("x").Lowest("discarded"))
	require.NoError(t, c.Flush())
}

func TestMergedFiltersDriveLoggerLevels(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig().
		Add("console", ConsoleSection(":output,noisy:warning", "warning", "none")).
		Add("file", FileSection("auto", filepath.Join(dir, "auto.log"), false))
	c := startContext(t, cfg)

	// file "auto" is :debug,noisy:output, more verbose than the console everywhere.
	assert.Equal(t, ":debug,noisy:output", c.Filters().String())
	assert.Equal(t, DEBUG, c.Logger("app").Level())
	assert.Equal(t, OUTPUT, c.Logger("noisy.x").Level())
}

func TestStaleLoggerAcrossReinitialization(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	c := New()
	require.NoError(t, c.Configure(fileConfig(first, ":output")))
	require.NoError(t, c.Init())
	log := c.Logger("kept")
	require.NoError(t, log.Output("before"))
	assert.False(t, log.Enabled(INFO))

	require.NoError(t, c.Cleanup(true))
	require.NoError(t, c.Configure(fileConfig(second, ":info")))
	require.NoError(t, c.Init())

	assert.True(t, log.Enabled(INFO), "level is resolved again after init")
	require.NoError(t, log.Info("after"))
	assert.Same(t, log, c.Logger("kept"))
	require.NoError(t, c.Cleanup(true))

	assert.Len(t, readLines(t, first), 1)
	lines := readLines(t, second)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "|kept|after"))
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{Unconfigured, "unconfigured"},
		{Configured, "configured"},
		{Initialized, "initialized"},
		{Finalized, "finalized"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}
