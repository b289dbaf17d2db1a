// internal/transport/subscriber.go

package transport

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Message is a received data message, or a notice that the publisher Peer went
// away when Gone is set.
type Message struct {
	Peer  string
	Parts [][]byte
	Gone  bool
}

// Subscriber fans in messages from every publisher over zmq4 SUB sockets,
// keeping those whose topic starts with a subscribed prefix. A publisher is
// gone when it says goodbye or stays silent longer than the liveness.
type Subscriber struct {
	socket
	opts   options
	onPeer func(peerID string)
	msgs   chan Message

	subsMu sync.Mutex
	subs   []string

	peersMu sync.Mutex
	peers   map[string]time.Time
}

// NewSubscriber creates a subscriber announcing itself as id. onPeer, when not
// nil, runs for each new publisher before the publisher is acknowledged, so a
// publisher whose WaitPeers returned is always known to the caller.
func NewSubscriber(id string, onPeer func(peerID string), opts ...Option) *Subscriber {
	s := &Subscriber{
		opts:   newOptions(opts),
		onPeer: onPeer,
		msgs:   make(chan Message, 1024),
		subs:   []string{controlPrefix},
		peers:  make(map[string]time.Time),
	}
	s.socket.setup(id, zmq4.NewSub, s.watch)
	s.spawn(s.reap)
	return s
}

// Subscribe adds a topic prefix; the empty prefix matches everything.
func (s *Subscriber) Subscribe(prefix string) {
	s.subsMu.Lock()
	s.subs = append(s.subs, prefix)
	s.subsMu.Unlock()
	s.setOption(zmq4.OptionSubscribe, prefix)
}

func (s *Subscriber) setOption(name, topic string) {
	for _, sock := range s.sockets() {
		_ = sock.SetOption(name, topic)
	}
}

func (s *Subscriber) watch(sock zmq4.Socket) {
	s.subsMu.Lock()
	for _, prefix := range s.subs {
		_ = sock.SetOption(zmq4.OptionSubscribe, prefix)
	}
	s.subsMu.Unlock()

	s.spawn(func() {
		for {
			msg, err := sock.Recv()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				case <-time.After(retryDelay):
				}
				continue
			}
			s.handle(msg.Frames)
		}
	})
}

func (s *Subscriber) handle(frames [][]byte) {
	if len(frames) < 2 {
		return
	}
	topic, peer := frames[0], string(frames[1])
	switch {
	case string(topic) == byeTopic:
		s.forget(peer)
		return
	case bytes.HasPrefix(topic, []byte(controlPrefix)):
		s.seen(peer)
		return
	}
	s.seen(peer)
	parts := make([][]byte, 0, len(frames)-1)
	parts = append(parts, topic)
	s.deliver(Message{Peer: peer, Parts: append(parts, frames[2:]...)})
}

// seen records activity from peer and acknowledges a new one.
func (s *Subscriber) seen(peer string) {
	s.peersMu.Lock()
	_, known := s.peers[peer]
	s.peers[peer] = time.Now()
	s.peersMu.Unlock()
	if known {
		return
	}
	if s.onPeer != nil {
		s.onPeer(peer)
	}
	s.setOption(zmq4.OptionSubscribe, ackTopic(peer, s.id))
}

// forget drops peer and reports it gone.
func (s *Subscriber) forget(peer string) {
	s.peersMu.Lock()
	_, known := s.peers[peer]
	delete(s.peers, peer)
	s.peersMu.Unlock()
	if !known {
		return
	}
	s.setOption(zmq4.OptionUnsubscribe, ackTopic(peer, s.id))
	s.deliver(Message{Peer: peer, Gone: true})
}

// reap forgets the publishers silent for longer than the liveness.
func (s *Subscriber) reap() {
	ticker := time.NewTicker(s.opts.liveness / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			var silent []string
			s.peersMu.Lock()
			for peer, last := range s.peers {
				if now.Sub(last) > s.opts.liveness {
					silent = append(silent, peer)
				}
			}
			s.peersMu.Unlock()
			for _, peer := range silent {
				s.forget(peer)
			}
		}
	}
}

func (s *Subscriber) deliver(m Message) {
	select {
	case s.msgs <- m:
	case <-s.ctx.Done():
	}
}

// Recv returns the next message.
func (s *Subscriber) Recv(ctx context.Context) (Message, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-s.ctx.Done():
		return Message{}, ErrClosed
	}
}
