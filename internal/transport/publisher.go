// internal/transport/publisher.go

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Publisher fans messages out over zmq4 XPUB sockets. Subscribers are counted
// once they acknowledged the publisher; messages sent while nobody subscribed
// to their topic are dropped.
type Publisher struct {
	socket
	opts options

	sendMu sync.Mutex

	peersMu sync.Mutex
	peers   map[string]struct{}
	changed chan struct{}
}

// NewPublisher creates a publisher announcing itself as id.
func NewPublisher(id string, opts ...Option) *Publisher {
	p := &Publisher{
		opts:    newOptions(opts),
		peers:   make(map[string]struct{}),
		changed: make(chan struct{}),
	}
	p.socket.setup(id, zmq4.NewXPub, p.watch)
	p.spawn(p.heartbeat)
	return p
}

// ID returns the identity sent to subscribers.
func (p *Publisher) ID() string { return p.id }

// watch reads the subscriptions arriving on sock.
func (p *Publisher) watch(sock zmq4.Socket) {
	p.spawn(func() {
		for {
			msg, err := sock.Recv()
			if err != nil {
				select {
				case <-p.ctx.Done():
					return
				case <-time.After(retryDelay):
				}
				continue
			}
			if len(msg.Frames) == 0 || len(msg.Frames[0]) == 0 {
				continue
			}
			subscribe, topic := msg.Frames[0][0] == 1, msg.Frames[0][1:]
			if subID, ok := parseAck(topic, p.id); ok {
				p.setPeer(subID, subscribe)
				continue
			}
			if subscribe {
				// A new subscription: say hello so the subscriber can ack.
				_ = p.sendTo(sock, []byte(helloTopic), nil)
			}
		}
	})
}

func (p *Publisher) heartbeat() {
	ticker := time.NewTicker(p.opts.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			_ = p.send([]byte(helloTopic), nil)
		}
	}
}

func (p *Publisher) setPeer(subID string, present bool) {
	p.peersMu.Lock()
	defer p.peersMu.Unlock()
	if _, ok := p.peers[subID]; ok == present {
		return
	}
	if present {
		p.peers[subID] = struct{}{}
	} else {
		delete(p.peers, subID)
	}
	close(p.changed)
	p.changed = make(chan struct{})
}

// Peers returns the number of subscribers that acknowledged the publisher.
func (p *Publisher) Peers() int {
	p.peersMu.Lock()
	defer p.peersMu.Unlock()
	return len(p.peers)
}

// WaitPeers blocks until at least n subscribers acknowledged the publisher.
// A subscriber acknowledges only after its peer callback returned.
func (p *Publisher) WaitPeers(ctx context.Context, n int) error {
	for {
		p.peersMu.Lock()
		count, changed := len(p.peers), p.changed
		p.peersMu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %d subscriber(s), %d ready: %w", n, count, ctx.Err())
		case <-p.ctx.Done():
			return ErrClosed
		}
	}
}

// Send publishes one message; parts[0] is the topic.
func (p *Publisher) Send(parts ...[]byte) error {
	if len(parts) == 0 {
		return errors.New("transport: empty message")
	}
	return p.send(parts[0], parts[1:])
}

func (p *Publisher) send(topic []byte, rest [][]byte) error {
	if p.isClosed() {
		return ErrClosed
	}
	var errs []error
	for _, sock := range p.sockets() {
		errs = append(errs, p.sendTo(sock, topic, rest))
	}
	return errors.Join(errs...)
}

func (p *Publisher) sendTo(sock zmq4.Socket, topic []byte, rest [][]byte) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	return sock.SendMulti(zmq4.NewMsgFrom(frame(topic, p.id, rest)...))
}

// Close says goodbye to the subscribers, then closes the sockets.
func (p *Publisher) Close() error {
	var err error
	if !p.isClosed() {
		err = p.send([]byte(byeTopic), nil)
	}
	if closeErr := p.socket.Close(); err == nil {
		err = closeErr
	}
	return err
}
