// internal/transport/wire.go

package transport

import (
	"bytes"
	"errors"
	"time"
)

// Every message on the wire is [topic, sender id, parts...]. Topics starting
// with controlPrefix carry the session protocol and are never delivered:
//   - hello: sent by a publisher when it sees a new subscription, then as a
//     heartbeat
//   - bye: sent by a publisher that closes
//
// A subscriber acknowledges a publisher by subscribing to its ack topic, which
// is how the publisher counts ready subscribers.
const (
	controlPrefix = "\x00lb|"
	helloTopic    = controlPrefix + "hello"
	byeTopic      = controlPrefix + "bye"
	ackPrefix     = controlPrefix + "ack|"
)

const (
	DefaultHeartbeat = time.Second
	DefaultLiveness  = 5 * time.Second

	retryDelay = 10 * time.Millisecond
)

// ErrClosed is returned by operations on a closed socket.
var ErrClosed = errors.New("transport: socket closed")

// Option tunes a Publisher or a Subscriber.
type Option func(*options)

type options struct {
	heartbeat time.Duration
	liveness  time.Duration
}

func newOptions(opts []Option) options {
	o := options{heartbeat: DefaultHeartbeat, liveness: DefaultLiveness}
	for _, opt := range opts {
		opt(&o)
	}
	if o.heartbeat <= 0 {
		o.heartbeat = DefaultHeartbeat
	}
	if o.liveness <= 0 {
		o.liveness = DefaultLiveness
	}
	return o
}

// WithHeartbeat sets how often a publisher announces itself.
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) { o.heartbeat = d }
}

// WithLiveness sets how long a subscriber waits for a silent publisher before
// reporting it gone.
func WithLiveness(d time.Duration) Option {
	return func(o *options) { o.liveness = d }
}

func ackTopic(pubID, subID string) string {
	return ackPrefix + pubID + "\x00" + subID
}

// parseAck returns the subscriber id of an ack topic addressed to pubID.
func parseAck(topic []byte, pubID string) (string, bool) {
	prefix := ackPrefix + pubID + "\x00"
	if !bytes.HasPrefix(topic, []byte(prefix)) {
		return "", false
	}
	return string(topic[len(prefix):]), true
}

func frame(topic []byte, id string, rest [][]byte) [][]byte {
	frames := make([][]byte, 0, len(rest)+2)
	frames = append(frames, topic, []byte(id))
	return append(frames, rest...)
}

// reconnect delays between dial attempts.
func backoff(attempt int) time.Duration {
	if attempt > 6 {
		return time.Second
	}
	return 10 * time.Millisecond << uint(attempt)
}
