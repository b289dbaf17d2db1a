// internal/handler/handler.go

package handler

import (
	"fmt"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
	"github.com/orgoj/logbridge/internal/record"
)

// Handler is a log sink. Open, Handle, Flush and Close are called from a
// single worker goroutine owned by the Chain.
type Handler interface {
	// Name returns the configuration section name.
	Name() string

	// Module returns the handler kind (console, file, ...).
	Module() string

	// Filters returns the rules this handler applies on top of the logger level.
	Filters() filter.Set

	// Accepts reports whether a record of level l from logger name passes Filters.
	Accepts(name string, l level.Level) bool

	// Open acquires the sink resources. A failure aborts engine initialization.
	Open() error

	// Handle renders or transports one record.
	Handle(r *record.Record) error

	// Flush makes everything handled so far durable.
	Flush() error

	// Close releases the sink resources.
	Close() error
}

type base struct {
	name    string
	module  string
	filters filter.Set
}

func (b *base) Name() string        { return b.name }
func (b *base) Module() string      { return b.module }
func (b *base) Filters() filter.Set { return b.filters }

func (b *base) Accepts(name string, l level.Level) bool {
	return b.filters.Accepts(name, l)
}

// New builds the handler of a configuration section. The section must have
// passed config validation; filters are the resolved section filters.
func New(name string, s *config.Section, filters filter.Set, program string) (Handler, error) {
	b := base{name: name, module: config.NormalizeModule(s.Module), filters: filters}

	switch b.module {
	case config.ModuleConsole:
		return NewConsoleHandler(b, s)
	case config.ModuleFile:
		return NewFileHandler(b, s)
	case config.ModuleSyslog:
		return NewSyslogHandler(b, s, program)
	case config.ModuleNull:
		return &NullHandler{base: b}, nil
	case config.ModuleRemote:
		return NewRemoteHandler(b, s, program)
	case config.ModuleSNMP:
		return NewSNMPHandler(b, s)
	case config.ModuleGELF:
		return NewGelfHandler(b, s)
	default:
		return nil, fmt.Errorf("unsupported handler module: %s", s.Module)
	}
}

// NullHandler accepts every record and discards it.
type NullHandler struct {
	base
}

// NewNullHandler returns a null handler accepting every level.
func NewNullHandler(name string) *NullHandler {
	return &NullHandler{base: base{name: name, module: config.ModuleNull, filters: filter.MustParse(":lowest")}}
}

func (h *NullHandler) Open() error                   { return nil }
func (h *NullHandler) Handle(_ *record.Record) error { return nil }
func (h *NullHandler) Flush() error                  { return nil }
func (h *NullHandler) Close() error                  { return nil }

// syslogSeverity maps a level onto the RFC 5424 severities used by syslog and GELF.
func syslogSeverity(l level.Level) int {
	switch {
	case l <= level.PANIC:
		return 0
	case l == level.ALERT:
		return 1
	case l == level.CRITICAL:
		return 2
	case l == level.ERROR:
		return 3
	case l == level.WARNING:
		return 4
	case l == level.NOTICE:
		return 5
	case l <= level.INFO:
		return 6
	default:
		return 7
	}
}

var (
	_ Handler = (*NullHandler)(nil)
	_ Handler = (*ConsoleHandler)(nil)
	_ Handler = (*FileHandler)(nil)
	_ Handler = (*SyslogHandler)(nil)
	_ Handler = (*RemoteHandler)(nil)
	_ Handler = (*SNMPHandler)(nil)
	_ Handler = (*GelfHandler)(nil)
)
