// internal/transport/socket.go

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// socket holds what publishers and subscribers share. Each bound url gets its
// own zmq4 socket; every connected url shares a single dialing socket.
type socket struct {
	id      string
	newSock func(ctx context.Context, opts ...zmq4.Option) zmq4.Socket
	onSock  func(s zmq4.Socket)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	socks  []zmq4.Socket
	dialer zmq4.Socket
	bound  []string
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *socket) setup(id string, newSock func(context.Context, ...zmq4.Option) zmq4.Socket, onSock func(zmq4.Socket)) {
	s.id = id
	s.newSock = newSock
	s.onSock = onSock
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

// openDialer creates the socket shared by every Connect; s.mu must be held.
func (s *socket) openDialer() zmq4.Socket {
	sock := s.newSock(s.ctx,
		zmq4.WithID(zmq4.SocketIdentity(s.id)),
		zmq4.WithDialerMaxRetries(0),
		zmq4.WithAutomaticReconnect(true),
	)
	s.socks = append(s.socks, sock)
	s.onSock(sock)
	return sock
}

// Bind listens on url and returns the concrete bound url.
func (s *socket) Bind(url string) (string, error) {
	e, err := ParseURL(url)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed() {
		return "", ErrClosed
	}
	sock := s.newSock(s.ctx, zmq4.WithID(zmq4.SocketIdentity(s.id)))
	if err := sock.Listen(e.String()); err != nil {
		sock.Close()
		return "", err
	}
	s.socks = append(s.socks, sock)
	s.onSock(sock)
	actual := e.resolved(sock.Addr())
	s.bound = append(s.bound, actual)
	return actual, nil
}

// Connect dials url in the background, retrying until it succeeds or the
// socket is closed. A lost connection is dialed again by zmq4.
func (s *socket) Connect(url string) error {
	e, err := ParseURL(url)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.dialer == nil {
		s.dialer = s.openDialer()
	}
	dialer := s.dialer
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		for attempt := 0; ; attempt++ {
			if err := dialer.Dial(e.String()); err == nil {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(backoff(attempt)):
			}
		}
	}()
	return nil
}

// BoundURLs lists the urls passed to Bind, resolved to concrete addresses.
func (s *socket) BoundURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bound...)
}

// sockets returns a snapshot of the open zmq4 sockets.
func (s *socket) sockets() []zmq4.Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]zmq4.Socket(nil), s.socks...)
}

// spawn runs fn in a goroutine that Close waits for.
func (s *socket) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *socket) isClosed() bool {
	return s.ctx.Err() != nil
}

// Close closes every zmq4 socket and waits for the goroutines to exit.
func (s *socket) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.cancel()
		for _, sock := range s.socks {
			sock.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}
