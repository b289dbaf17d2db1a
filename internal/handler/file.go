// internal/handler/file.go

package handler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/record"
)

const fileTimeLayout = "20060102T150405.000000000"

// FileHandler appends records to a file, one line per message line, with
// optional size or age based rotation.
type FileHandler struct {
	base
	mu         sync.Mutex
	path       string
	appendMode bool
	format     string
	rotation   config.Rotation
	writer     io.WriteCloser // *os.File or *lumberjack.Logger
	buf        *bufio.Writer
}

// NewFileHandler creates a file handler; the file is opened by Open.
func NewFileHandler(b base, s *config.Section) (*FileHandler, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("file handler requires a path")
	}
	format := s.Format
	if format == "" {
		format = config.DefaultFileFormat
	}
	if format != "json" && format != "text" {
		return nil, fmt.Errorf("invalid file handler format: %s", format)
	}
	return &FileHandler{
		base:       b,
		path:       s.Path,
		appendMode: s.AppendMode(),
		format:     format,
		rotation:   s.Rotation,
	}, nil
}

// Path returns the file path.
func (h *FileHandler) Path() string { return h.path }

// Open opens the file. The parent directory must exist: a missing directory
// is a configuration error, not something to create silently.
func (h *FileHandler) Open() error {
	dir := filepath.Dir(h.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("log file directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("log file directory %s is not a directory", dir)
	}

	var writer io.WriteCloser
	if h.rotation.Enabled() {
		writer, err = h.openRotating()
	} else {
		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if !h.appendMode {
			flags |= os.O_TRUNC
		}
		writer, err = os.OpenFile(h.path, flags, 0644)
	}
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", h.path, err)
	}

	h.mu.Lock()
	h.writer = writer
	h.buf = bufio.NewWriterSize(writer, 32*1024)
	h.mu.Unlock()
	return nil
}

func (h *FileHandler) openRotating() (io.WriteCloser, error) {
	var maxSizeMB, maxAgeDays int
	if h.rotation.MaxSize != "" {
		// A bare number is megabytes; units are accepted as well.
		if n, err := strconv.Atoi(h.rotation.MaxSize); err == nil {
			maxSizeMB = n
		} else {
			size, err := config.ParseSize(h.rotation.MaxSize)
			if err != nil {
				return nil, fmt.Errorf("invalid rotation.max_size '%s': %w", h.rotation.MaxSize, err)
			}
			maxSizeMB = int(size / (1024 * 1024))
			if size > 0 && maxSizeMB == 0 {
				maxSizeMB = 1 // lumberjack works in whole megabytes
			}
		}
	}
	if h.rotation.MaxAge != "" {
		age, err := config.ParseDuration(h.rotation.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid rotation.max_age '%s': %w", h.rotation.MaxAge, err)
		}
		maxAgeDays = int(age.Hours() / 24)
		if maxAgeDays == 0 {
			maxAgeDays = 1
		}
	}

	if !h.appendMode {
		if err := os.Truncate(h.path, 0); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return &lumberjack.Logger{
		Filename:   h.path,
		MaxSize:    maxSizeMB,
		MaxBackups: h.rotation.MaxBackups,
		MaxAge:     maxAgeDays,
		Compress:   h.rotation.Compress,
	}, nil
}

// fileEntry is the json line layout.
type fileEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Logger  string `json:"logger"`
	PID     int    `json:"pid"`
	Program string `json:"program"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Func    string `json:"func"`
	Message string `json:"msg"`
}

// Handle writes the record. Text lines look like
// "O|20240501T120000.000000000|4242:prog|main.go:12@main.main|app.db|message".
func (h *FileHandler) Handle(r *record.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf == nil {
		return fmt.Errorf("file handler %s is not open", h.name)
	}

	if h.format == "json" {
		line, err := json.Marshal(fileEntry{
			Time:    r.Time.Format(time.RFC3339Nano),
			Level:   r.Level.String(),
			Logger:  r.Logger,
			PID:     r.PID,
			Program: r.Program,
			File:    r.Location.File,
			Line:    r.Location.Line,
			Func:    r.Location.Func,
			Message: r.Message,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}
		line = append(line, '\n')
		_, err = h.buf.Write(line)
		return err
	}

	prefix := fmt.Sprintf("%c|%s|%d:%s|%s:%d@%s|%s|",
		r.Level.Char(), r.Time.Format(fileTimeLayout), r.PID, r.Program,
		r.Location.File, r.Location.Line, r.Location.Func, r.Logger)
	for _, line := range r.Lines() {
		if _, err := h.buf.WriteString(prefix); err != nil {
			return fmt.Errorf("failed to write log line: %w", err)
		}
		if _, err := h.buf.WriteString(line); err != nil {
			return fmt.Errorf("failed to write log line: %w", err)
		}
		if err := h.buf.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write log line: %w", err)
		}
	}
	return nil
}

// Flush hands buffered lines to the operating system.
func (h *FileHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf == nil {
		return nil
	}
	return h.buf.Flush()
}

// Close flushes, syncs and closes the file.
func (h *FileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		return nil
	}
	err := h.buf.Flush()
	if f, ok := h.writer.(*os.File); ok {
		if syncErr := f.Sync(); err == nil {
			err = syncErr
		}
	}
	if closeErr := h.writer.Close(); err == nil {
		err = closeErr
	}
	h.writer, h.buf = nil, nil
	return err
}
