// context.go

package logbridge

import (
	"errors"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/handler"
	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/report"
)

// State is the lifecycle state of a Context.
type State int

const (
	Unconfigured State = iota
	Configured
	Initialized
	Finalized
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Initialized:
		return "initialized"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// engine is what an initialized Context runs on. It is immutable once
// published; Init and Cleanup swap it as a whole.
type engine struct {
	chain   *handler.Chain
	filters filter.Set
	program string
	pid     int
}

// Context is one logging engine: configuration, handler chain and logger
// registry. All methods are safe for concurrent use.
type Context struct {
	mu          sync.Mutex // lifecycle transitions
	state       State
	cfg         *config.Configuration
	stack       []byte
	stopSignals func()

	engine atomic.Pointer[engine]

	loggersMu sync.Mutex
	loggers   map[string]*Logger
}

// New returns an unconfigured context.
func New() *Context {
	return &Context{loggers: make(map[string]*Logger)}
}

var defaultContext = New()

// Default returns the process-wide context used by the package-level functions.
func Default() *Context {
	return defaultContext
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConfigured reports whether the engine is initialized.
func (c *Context) IsConfigured() bool {
	return c.State() == Initialized
}

// Config returns a copy of the stored configuration, or nil.
func (c *Context) Config() *Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil {
		return nil
	}
	return c.cfg.Clone()
}

// Configure validates and stores cfg; a nil cfg stores the default
// configuration. It is only valid before the first Init or after Cleanup.
func (c *Context) Configure(cfg *Configuration) error {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg = cfg.Clone()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Configured || c.state == Initialized {
		return &AlreadyInitializedError{State: c.state, Stack: c.stack}
	}
	c.cfg = cfg
	c.state = Configured
	c.stack = debug.Stack()
	return nil
}

// Init opens every configured handler. When any handler fails, those already
// opened are closed, a *HandlerInitError is returned and the state is left
// unchanged. Without a stored configuration the default one is used.
func (c *Context) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initLocked()
}

func (c *Context) initLocked() error {
	if c.state == Initialized {
		return &AlreadyInitializedError{State: c.state, Stack: c.stack}
	}
	cfg := c.cfg
	if cfg == nil {
		cfg = config.Default()
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
	}
	program := cfg.ProgramName()

	var (
		handlers []handler.Handler
		sets     []filter.Set
	)
	abort := func(name string, s *config.Section, err error) error {
		for _, h := range handlers {
			if closeErr := h.Close(); closeErr != nil {
				report.Warnf("closing handler '%s' after failed initialization: %v", h.Name(), closeErr)
			}
		}
		return &HandlerInitError{Section: name, Module: s.Module, Err: err}
	}
	for _, name := range cfg.Handlers {
		s := cfg.Sections[name]
		filters, err := cfg.SectionFilters(name)
		if err != nil {
			return abort(name, s, err)
		}
		h, err := handler.New(name, s, filters, program)
		if err != nil {
			return abort(name, s, err)
		}
		if err := h.Open(); err != nil {
			return abort(name, s, err)
		}
		handlers = append(handlers, h)
		sets = append(sets, filters)
	}
	if len(handlers) == 0 {
		report.Print("Warning: no handler defined, every record will be discarded")
		h := handler.NewNullHandler(config.ModuleNull)
		handlers = append(handlers, h)
		sets = append(sets, h.Filters())
	}

	c.engine.Store(&engine{
		chain:   handler.NewChain(handlers, handler.DefaultQueueSize),
		filters: filter.Merge(sets...),
		program: program,
		pid:     os.Getpid(),
	})
	if cfg.SetSigHandler {
		c.stopSignals = installSignalHandler(c)
	}
	c.cfg = cfg
	c.state = Initialized
	c.stack = debug.Stack()
	return nil
}

// ensureInit initializes the engine on first use.
func (c *Context) ensureInit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Initialized {
		return
	}
	if err := c.initLocked(); err != nil {
		report.Errorf("implicit initialization failed: %v", err)
	}
}

// Cleanup flushes pending records when flush is set, closes every handler,
// clears the registry and drops the configuration. A configuration stored by
// Configure but never initialized, or whose Init failed, is dropped too. It is
// a no-op when nothing is configured.
func (c *Context) Cleanup(flush bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Initialized:
		return c.cleanupLocked(flush)
	case Configured:
		c.cfg = nil
		c.state = Finalized
	}
	return nil
}

func (c *Context) cleanupLocked(flush bool) error {
	if c.stopSignals != nil {
		c.stopSignals()
		c.stopSignals = nil
	}
	var err error
	if e := c.engine.Swap(nil); e != nil {
		err = e.chain.Close(flush)
	}

	c.loggersMu.Lock()
	c.loggers = make(map[string]*Logger)
	c.loggersMu.Unlock()

	c.cfg = nil
	c.state = Finalized
	return err
}

// reset brings the context back to a state where Configure is accepted,
// whatever it was.
func (c *Context) reset(flush bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.state == Initialized {
		err = c.cleanupLocked(flush)
	}
	if c.state != Unconfigured {
		c.cfg = nil
		c.state = Finalized
	}
	return err
}

// Flush blocks until every record emitted so far is written or transported.
func (c *Context) Flush() error {
	e := c.engine.Load()
	if e == nil {
		return nil
	}
	return e.chain.Flush()
}

// Stats returns the counters of every handler.
func (c *Context) Stats() []handler.Stats {
	e := c.engine.Load()
	if e == nil {
		return nil
	}
	return e.chain.Stats()
}

// BoundURLs returns the concrete urls of the remote handlers that bind,
// keyed by section name, with tcp://host:0 resolved to the chosen port.
func (c *Context) BoundURLs() map[string][]string {
	e := c.engine.Load()
	if e == nil {
		return nil
	}
	urls := make(map[string][]string)
	for _, h := range e.chain.Handlers() {
		if remote, ok := h.(*handler.RemoteHandler); ok {
			if bound := remote.BoundURLs(); len(bound) > 0 {
				urls[h.Name()] = bound
			}
		}
	}
	return urls
}

// Filters returns the merged filters of all handlers, from which logger
// levels are resolved.
func (c *Context) Filters() FilterSet {
	e := c.engine.Load()
	if e == nil {
		return nil
	}
	return e.filters
}

// dispatch hands r to the handler chain, initializing the engine if needed.
// Records reaching a context that could not be initialized are lost.
func (c *Context) dispatch(r *record.Record) {
	e := c.engine.Load()
	if e == nil {
		c.ensureInit()
		if e = c.engine.Load(); e == nil {
			return
		}
	}
	if r.PID == 0 {
		r.PID = e.pid
	}
	if r.Program == "" {
		r.Program = e.program
	}
	e.chain.Dispatch(r)
}

var errNotInitialized = errors.New("logging is not initialized")
