package logbridge_test

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgoj/logbridge"
)

func startFileContext(t *testing.T, path string) *logbridge.Context {
	t.Helper()
	cfg := logbridge.NewConfig()
	cfg.SetSigHandler = false
	cfg.Add("file", logbridge.FileSection(":lowest", path, false))

	c := logbridge.New()
	require.NoError(t, c.Configure(cfg))
	require.NoError(t, c.Init())
	t.Cleanup(func() { _ = c.Cleanup(false) })
	return c
}

func fileLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "writer.log")
	c := startFileContext(t, path)

	w := c.Logger("pipe").Writer(logbridge.NOTICE)
	_, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	_, err = fmt.Fprint(w, "o\r\npar")
	require.NoError(t, err)
	_, err = w.Write([]byte("tial 100%"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, c.Flush())

	lines := fileLines(t, path)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "|pipe|one"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "|pipe|two"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "|pipe|partial 100%"), lines[2])
	assert.Contains(t, lines[1], "@logbridge_test.TestWriter|")
}

func TestWriterThroughBufio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bufio.log")
	c := startFileContext(t, path)

	w := c.Logger("buffered").Writer(logbridge.INFO)
	bw := bufio.NewWriter(w)
	_, err := bw.WriteString("first\nsecond\n")
	require.NoError(t, err)
	require.NoError(t, bw.Flush())
	require.NoError(t, c.Flush())

	lines := fileLines(t, path)
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "I|"), line)
		assert.Contains(t, line, "writer_test.go:")
		assert.Contains(t, line, "@logbridge_test.TestWriterThroughBufio|")
	}
}

func TestRedirectStdLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdlog.log")
	c := startFileContext(t, path)

	restore := c.RedirectStdLog("stdlog", logbridge.WARNING)
	log.Printf("deprecated option %q", "x")
	restore()
	require.NoError(t, c.Flush())

	lines := fileLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "W|"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], `|stdlog|deprecated option "x"`), lines[0])
	assert.Contains(t, lines[0], "writer_test.go:")
	assert.Contains(t, lines[0], "@logbridge_test.TestRedirectStdLog|")
}
