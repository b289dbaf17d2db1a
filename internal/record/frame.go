// internal/record/frame.go

package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/orgoj/logbridge/internal/level"
)

// Topic headers. A data topic is DataHeader followed by the level chain from
// LOWEST down to the record level, so subscribing to DataTopic(l) receives l and
// every more severe level.
const (
	DataHeader = "L|"
	EOSHeader  = "X|"
	levelChain = "LTFDIONWECAP"
)

// ErrFrameDecode is matched by every *FrameDecodeError.
var ErrFrameDecode = errors.New("frame decode error")

// FrameDecodeError reports a malformed wire frame.
type FrameDecodeError struct {
	Err error
}

func (e *FrameDecodeError) Error() string { return "malformed frame: " + e.Err.Error() }

func (e *FrameDecodeError) Unwrap() error { return e.Err }

func (e *FrameDecodeError) Is(target error) bool { return target == ErrFrameDecode }

var msgpackHandle codec.MsgpackHandle

func init() {
	msgpackHandle.StructToArray = true
	msgpackHandle.WriteExt = true
}

type wireRecord struct {
	_struct  bool `codec:",toarray"`
	Level    uint8
	Logger   string
	File     string
	Func     string
	Line     int
	Message  string
	UnixNano int64
	PID      int
	Program  string
}

// DataTopic returns the topic a record of level l is published under.
func DataTopic(l level.Level) string {
	l = l.Clamp()
	if l == level.OFF {
		return DataHeader
	}
	return DataHeader + levelChain[:int(level.LOWEST-l)+1]
}

// IsEndOfStream reports whether topic marks a publisher exit.
func IsEndOfStream(topic []byte) bool {
	return string(topic) == EOSHeader
}

// EndOfStream builds the two frame parts announcing that publisher id exits.
func EndOfStream(id string) [][]byte {
	return [][]byte{[]byte(EOSHeader), []byte(id)}
}

// Encode builds the two frame parts [topic, payload] of a record.
func Encode(r *Record) ([][]byte, error) {
	w := wireRecord{
		Level:    uint8(r.Level),
		Logger:   r.Logger,
		File:     r.Location.File,
		Func:     r.Location.Func,
		Line:     r.Location.Line,
		Message:  r.Message,
		UnixNano: r.Time.UnixNano(),
		PID:      r.PID,
		Program:  r.Program,
	}
	var payload []byte
	if err := codec.NewEncoderBytes(&payload, &msgpackHandle).Encode(&w); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return [][]byte{[]byte(DataTopic(r.Level)), payload}, nil
}

// Decode parses the parts produced by Encode.
func Decode(parts [][]byte) (*Record, error) {
	if len(parts) != 2 {
		return nil, &FrameDecodeError{Err: fmt.Errorf("expected 2 parts, got %d", len(parts))}
	}
	if !strings.HasPrefix(string(parts[0]), DataHeader) {
		return nil, &FrameDecodeError{Err: fmt.Errorf("unexpected topic %q", parts[0])}
	}
	var w wireRecord
	if err := codec.NewDecoderBytes(parts[1], &msgpackHandle).Decode(&w); err != nil {
		return nil, &FrameDecodeError{Err: err}
	}
	l := level.Level(w.Level)
	if l == level.OFF || !l.Valid() {
		return nil, &FrameDecodeError{Err: fmt.Errorf("invalid level %d", w.Level)}
	}
	if string(parts[0]) != DataTopic(l) {
		return nil, &FrameDecodeError{Err: fmt.Errorf("topic %q does not match level %s", parts[0], l)}
	}
	return &Record{
		Time:     time.Unix(0, w.UnixNano),
		Level:    l,
		Logger:   w.Logger,
		Location: Location{File: w.File, Line: w.Line, Func: w.Func},
		Message:  w.Message,
		PID:      w.PID,
		Program:  w.Program,
	}, nil
}
