// internal/handler/chain.go

package handler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/report"
)

// DefaultQueueSize is the number of records a handler may lag behind emitters
// before Dispatch blocks.
const DefaultQueueSize = 1024

// Stats are per-handler counters.
type Stats struct {
	Name    string `json:"name"`
	Module  string `json:"module"`
	Handled uint64 `json:"handled"`
	Failed  uint64 `json:"failed"`
	Dropped uint64 `json:"dropped"`
}

type item struct {
	rec   *record.Record
	flush chan error
}

type worker struct {
	h       Handler
	queue   chan item
	done    chan struct{}
	handled atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

func (w *worker) run() {
	defer close(w.done)
	for it := range w.queue {
		if it.flush != nil {
			it.flush <- w.h.Flush()
			continue
		}
		if err := w.h.Handle(it.rec); err != nil {
			w.failed.Add(1)
			report.Errorf("handler '%s' (%s): %v", w.h.Name(), w.h.Module(), err)
			continue
		}
		w.handled.Add(1)
	}
}

// Chain dispatches records to opened handlers, each served by its own worker
// goroutine so that a slow sink never runs on the emitting goroutine.
// Records from one emitter reach each handler in emission order.
type Chain struct {
	mu      sync.RWMutex
	workers []*worker
	closed  bool
}

// NewChain starts one worker per opened handler.
func NewChain(handlers []Handler, queueSize int) *Chain {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	c := &Chain{}
	for _, h := range handlers {
		w := &worker{h: h, queue: make(chan item, queueSize), done: make(chan struct{})}
		c.workers = append(c.workers, w)
		go w.run()
	}
	return c
}

// Dispatch queues r on every handler accepting it.
func (c *Chain) Dispatch(r *record.Record) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	for _, w := range c.workers {
		if w.h.Accepts(r.Logger, r.Level) {
			w.queue <- item{rec: r}
		}
	}
}

// Flush waits until every record dispatched before the call is handled and
// flushed.
func (c *Chain) Flush() error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil
	}
	pending := make([]chan error, len(c.workers))
	for i, w := range c.workers {
		pending[i] = make(chan error, 1)
		w.queue <- item{flush: pending[i]}
	}
	c.mu.RUnlock()

	var errs []error
	for i, ch := range pending {
		if err := <-ch; err != nil {
			errs = append(errs, fmt.Errorf("flushing '%s': %w", c.workers[i].h.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the workers and closes the handlers. With flush, queued records
// are handled first; without, they are discarded and counted as dropped.
func (c *Chain) Close(flush bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, w := range c.workers {
		if !flush {
			w.discard()
		}
		close(w.queue)
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			<-w.done
			var err error
			if flush {
				err = w.h.Flush()
			}
			err = errors.Join(err, w.h.Close())
			if lost := w.failed.Load() + w.dropped.Load(); lost > 0 {
				report.Warnf("handler '%s' (%s): %d record(s) lost (%d failed, %d dropped)",
					w.h.Name(), w.h.Module(), lost, w.failed.Load(), w.dropped.Load())
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("closing '%s': %w", w.h.Name(), err))
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// discard drops queued records without blocking.
func (w *worker) discard() {
	for {
		select {
		case it := <-w.queue:
			if it.flush != nil {
				it.flush <- nil
			} else {
				w.dropped.Add(1)
			}
		default:
			return
		}
	}
}

// Handlers returns the handlers in configuration order.
func (c *Chain) Handlers() []Handler {
	out := make([]Handler, len(c.workers))
	for i, w := range c.workers {
		out[i] = w.h
	}
	return out
}

// Stats returns the counters of every handler.
func (c *Chain) Stats() []Stats {
	out := make([]Stats, len(c.workers))
	for i, w := range c.workers {
		out[i] = Stats{
			Name:    w.h.Name(),
			Module:  w.h.Module(),
			Handled: w.handled.Load(),
			Failed:  w.failed.Load(),
			Dropped: w.dropped.Load(),
		}
	}
	return out
}
