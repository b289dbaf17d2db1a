// receiver.go

package logbridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/orgoj/logbridge/internal/record"
	"github.com/orgoj/logbridge/internal/report"
	"github.com/orgoj/logbridge/internal/transport"
)

// ReceiverStats are the counters of a Receiver.
type ReceiverStats struct {
	Received   uint64 `json:"received"`
	Dropped    uint64 `json:"dropped"`
	Publishers int    `json:"publishers"`
	Exited     int    `json:"exited"`
	Lost       int    `json:"lost"`
}

type publisherState int

const (
	publisherActive publisherState = iota
	publisherExited                // end-of-stream received
	publisherLost                  // connection ended without end-of-stream
)

// Receiver subscribes to remote handlers and dispatches their records to the
// handlers of a local Context, as if they had been emitted locally.
type Receiver struct {
	ctx  *Context
	urls []string
	bind bool

	mu         sync.Mutex
	cond       *sync.Cond
	publishers map[string]publisherState
	started    bool
	stopped    bool
	bound      []string

	sub      *transport.Subscriber
	cancel   context.CancelFunc
	done     chan struct{}
	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewReceiver creates a receiver that binds (or connects to) every url and
// dispatches to ctx.
func NewReceiver(ctx *Context, urls []string, bind bool) *Receiver {
	r := &Receiver{
		ctx:        ctx,
		urls:       append([]string(nil), urls...),
		bind:       bind,
		publishers: make(map[string]publisherState),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Start sets the sockets up and starts the receiving goroutine.
func (r *Receiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("receiver already started")
	}
	if r.ctx.engine.Load() == nil {
		r.ctx.ensureInit()
		if r.ctx.engine.Load() == nil {
			return errNotInitialized
		}
	}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	sub := transport.NewSubscriber(fmt.Sprintf("receiver:%s:%d", host, os.Getpid()), r.addPublisher)
	// Records no local handler accepts are filtered out by the publishers.
	if verbose := r.ctx.Filters().Max(); verbose != OFF {
		sub.Subscribe(record.DataTopic(verbose))
	}
	sub.Subscribe(record.EOSHeader)
	var bound []string
	for _, url := range r.urls {
		if r.bind {
			actual, err := sub.Bind(url)
			if err != nil {
				sub.Close()
				return fmt.Errorf("binding %s: %w", url, err)
			}
			bound = append(bound, actual)
		} else if err := sub.Connect(url); err != nil {
			sub.Close()
			return fmt.Errorf("connecting %s: %w", url, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.sub, r.cancel, r.bound = sub, cancel, bound
	r.done = make(chan struct{})
	r.started = true
	go r.loop(ctx)
	return nil
}

// addPublisher runs during the handshake of every publisher connection.
func (r *Receiver) addPublisher(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[id] = publisherActive
}

func (r *Receiver) setPublisher(id string, state publisherState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.publishers[id]; ok && current == publisherExited {
		return
	}
	r.publishers[id] = state
	r.cond.Broadcast()
}

func (r *Receiver) loop(ctx context.Context) {
	defer close(r.done)
	for {
		msg, err := r.sub.Recv(ctx)
		if err != nil {
			return
		}
		if msg.Gone {
			r.mu.Lock()
			state := r.publishers[msg.Peer]
			r.mu.Unlock()
			if state != publisherExited {
				report.Warnf("publisher %s disconnected without end of stream", msg.Peer)
				r.setPublisher(msg.Peer, publisherLost)
			}
			continue
		}
		if record.IsEndOfStream(msg.Parts[0]) {
			r.setPublisher(msg.Peer, publisherExited)
			continue
		}
		rec, err := record.Decode(msg.Parts)
		if err != nil {
			r.dropped.Add(1)
			report.Warnf("dropping frame from %s: %v", msg.Peer, err)
			continue
		}
		r.received.Add(1)
		r.ctx.dispatch(rec)
	}
}

func (r *Receiver) allFinishedLocked() bool {
	for _, state := range r.publishers {
		if state == publisherActive {
			return false
		}
	}
	return true
}

// Stop shuts the receiver down and flushes the local handlers. With
// waitRemoteExit it first waits, without timeout, until every known
// publisher sent its end of stream or disconnected; otherwise frames in
// flight are discarded.
func (r *Receiver) Stop(waitRemoteExit bool) error {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return nil
	}
	if waitRemoteExit {
		for !r.allFinishedLocked() {
			r.cond.Wait()
		}
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	<-r.done
	err := r.sub.Close()
	return errors.Join(err, r.ctx.Flush())
}

// BoundURLs returns the concrete urls the receiver listens on when binding.
func (r *Receiver) BoundURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bound...)
}

// Stats returns the receiver counters.
func (r *Receiver) Stats() ReceiverStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := ReceiverStats{
		Received:   r.received.Load(),
		Dropped:    r.dropped.Load(),
		Publishers: len(r.publishers),
	}
	for _, state := range r.publishers {
		switch state {
		case publisherExited:
			stats.Exited++
		case publisherLost:
			stats.Lost++
		}
	}
	return stats
}
