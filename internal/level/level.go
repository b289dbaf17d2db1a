// internal/level/level.go

package level

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a log severity. Lower values are more severe; OFF disables everything.
type Level uint8

const (
	OFF Level = iota
	PANIC
	ALERT
	CRITICAL
	ERROR
	WARNING
	NOTICE
	OUTPUT
	INFO
	DEBUG
	FINE
	TRACE
	LOWEST
)

// ErrBadLevelName is matched by every *BadLevelNameError.
var ErrBadLevelName = errors.New("bad level name")

// BadLevelNameError reports a level name or rank that does not map to a Level.
type BadLevelNameError struct {
	Name string
}

func (e *BadLevelNameError) Error() string {
	return fmt.Sprintf("bad level name '%s' (expected one of %s)", e.Name, strings.Join(Names(), ", "))
}

func (e *BadLevelNameError) Is(target error) bool {
	return target == ErrBadLevelName
}

var names = [...]string{
	OFF:      "off",
	PANIC:    "panic",
	ALERT:    "alert",
	CRITICAL: "critical",
	ERROR:    "error",
	WARNING:  "warning",
	NOTICE:   "notice",
	OUTPUT:   "output",
	INFO:     "info",
	DEBUG:    "debug",
	FINE:     "fine",
	TRACE:    "trace",
	LOWEST:   "lowest",
}

// chars are the single-letter codes written in file lines.
var chars = [...]byte{'-', 'P', 'A', 'C', 'E', 'W', 'N', 'O', 'I', 'D', 'F', 'T', 'L'}

var aliases = map[string]Level{
	"emergency": PANIC,
	"emerg":     PANIC,
	"crit":      CRITICAL,
	"err":       ERROR,
	"warn":      WARNING,
	"out":       OUTPUT,
	"all":       LOWEST,
}

var byName map[string]Level

func init() {
	byName = make(map[string]Level, len(names)+len(aliases))
	for i, n := range names {
		byName[n] = Level(i)
	}
	for n, l := range aliases {
		byName[n] = l
	}
}

// Parse converts a case-insensitive name, an alias, or an integer rank into a Level.
func Parse(s string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if l, ok := byName[key]; ok {
		return l, nil
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < int(OFF) || n > int(LOWEST) {
		return OFF, &BadLevelNameError{Name: s}
	}
	return Level(n), nil
}

// Valid reports whether l is within OFF..LOWEST.
func (l Level) Valid() bool {
	return l <= LOWEST
}

func (l Level) String() string {
	if !l.Valid() {
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
	return names[l]
}

// Char returns the one-letter code of l; OFF and out-of-range levels give '-'.
func (l Level) Char() byte {
	if !l.Valid() {
		return '-'
	}
	return chars[l]
}

// Clamp limits l to LOWEST.
func (l Level) Clamp() Level {
	if l > LOWEST {
		return LOWEST
	}
	return l
}

// MoreVerbose reports whether l admits more records than other.
func (l Level) MoreVerbose(other Level) bool {
	return l > other
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, &BadLevelNameError{Name: strconv.Itoa(int(l))}
	}
	return []byte(names[l]), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// All returns the emitting levels from PANIC to LOWEST.
func All() []Level {
	out := make([]Level, 0, int(LOWEST))
	for l := PANIC; l <= LOWEST; l++ {
		out = append(out, l)
	}
	return out
}

// Names returns the canonical names from off to lowest.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}
