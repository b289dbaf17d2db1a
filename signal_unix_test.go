//go:build unix

package logbridge

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSignalChild emits count records with signal handling enabled, then
// terminates itself with SIGTERM.
func runSignalChild(spec string) int {
	path, countStr, ok := strings.Cut(spec, "|")
	if !ok {
		return 2
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 2
	}

	cfg := fileConfig(path, ":output")
	cfg.SetSigHandler = true
	c := New()
	if err := c.Configure(cfg); err != nil {
		return 2
	}
	if err := c.Init(); err != nil {
		return 2
	}
	l := c.Logger("victim")
	for i := 0; i < count; i++ {
		_ = l.Output("record %d", i)
	}
	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		return 2
	}
	time.Sleep(10 * time.Second)
	return 3
}

func TestSignalFlushesBeforeExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.log")
	const records = 100

	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s|%d", signalEnv, path, records))
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "child exit: %v\n%s", err, out)
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	if status.Signaled() {
		assert.Equal(t, syscall.SIGTERM, status.Signal())
	} else {
		assert.Equal(t, 128+int(syscall.SIGTERM), status.ExitStatus(), string(out))
	}

	lines := readLines(t, path)
	require.Len(t, lines, records+1)
	for i, line := range lines[:records] {
		assert.True(t, strings.HasSuffix(line, fmt.Sprintf("|victim|record %d", i)), line)
	}
	last := lines[records]
	assert.True(t, strings.HasPrefix(last, "C|"), last)
	assert.True(t, strings.HasSuffix(last, "|logbridge.signal|Signal 'terminated' received, flushing logs before exiting"), last)
}
