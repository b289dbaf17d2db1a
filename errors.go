// errors.go

package logbridge

import (
	"errors"
	"fmt"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
	"github.com/orgoj/logbridge/internal/record"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("format error")
	// ErrHandlerInit matches every *HandlerInitError.
	ErrHandlerInit = errors.New("handler initialization failed")
	// ErrAlreadyInitialized matches every *AlreadyInitializedError.
	ErrAlreadyInitialized = errors.New("logging already initialized")

	ErrBadLevelName  = level.ErrBadLevelName
	ErrFilterSyntax  = filter.ErrSyntax
	ErrFrameDecode   = record.ErrFrameDecode
	ErrInvalidConfig = config.ErrInvalid
)

// FormatError is returned by an emit call whose arguments do not match its
// format. The record is not dispatched.
type FormatError struct {
	Format string
	Args   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error in %q with %d argument(s): %s", e.Format, e.Args, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// HandlerInitError aborts Init: the handler of Section could not be built or
// opened.
type HandlerInitError struct {
	Section string
	Module  string
	Err     error
}

func (e *HandlerInitError) Error() string {
	return fmt.Sprintf("handler '%s' (%s): %v", e.Section, e.Module, e.Err)
}

func (e *HandlerInitError) Unwrap() error { return e.Err }

func (e *HandlerInitError) Is(target error) bool { return target == ErrHandlerInit }

// AlreadyInitializedError is returned by Configure or Init called too late.
// Stack is the goroutine stack of the call that configured or initialized
// the engine first.
type AlreadyInitializedError struct {
	State State
	Stack []byte
}

func (e *AlreadyInitializedError) Error() string {
	return fmt.Sprintf("logging already %s, the first call was made from:\n%s", e.State, e.Stack)
}

func (e *AlreadyInitializedError) Is(target error) bool { return target == ErrAlreadyInitialized }
