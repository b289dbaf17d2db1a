// internal/filter/filter.go

// Package filter implements prefix-based level rules: "prefix:level" items
// separated by commas, resolved by lexical prefix order with the last match winning.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/orgoj/logbridge/internal/level"
)

// ExactMarker starts a prefix that only matches the logger with exactly that name.
const ExactMarker = "~"

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("filter syntax error")

// SyntaxError reports a malformed filter item.
type SyntaxError struct {
	Item string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter item '%s': %v", e.Item, e.Err)
	}
	return fmt.Sprintf("invalid filter item '%s': expected prefix:level", e.Item)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Filter is one rule of a Set.
type Filter struct {
	Prefix string
	Level  level.Level
}

// Matches reports whether the rule applies to the logger name.
func (f Filter) Matches(name string) bool {
	if exact, ok := strings.CutPrefix(f.Prefix, ExactMarker); ok {
		return name == exact
	}
	return strings.HasPrefix(name, f.Prefix)
}

func (f Filter) String() string {
	return f.Prefix + ":" + f.Level.String()
}

// Set is a normalized rule list: sorted by prefix, one rule per prefix, with a
// default rule for the empty prefix.
type Set []Filter

// New normalizes filters into a Set. A later filter for the same prefix replaces
// an earlier one; a missing default rule is added at OFF.
func New(filters ...Filter) Set {
	byPrefix := make(map[string]level.Level, len(filters)+1)
	for _, f := range filters {
		byPrefix[f.Prefix] = f.Level.Clamp()
	}
	if _, ok := byPrefix[""]; !ok {
		byPrefix[""] = level.OFF
	}
	return fromMap(byPrefix)
}

func fromMap(byPrefix map[string]level.Level) Set {
	s := make(Set, 0, len(byPrefix))
	for p, l := range byPrefix {
		s = append(s, Filter{Prefix: p, Level: l})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Prefix < s[j].Prefix })
	return s
}

// Parse reads the comma-separated "prefix:level" grammar. Blank items are skipped.
func Parse(spec string) (Set, error) {
	var filters []Filter
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		prefix, lvl, ok := strings.Cut(item, ":")
		if !ok {
			return nil, &SyntaxError{Item: item}
		}
		l, err := level.Parse(lvl)
		if err != nil {
			return nil, &SyntaxError{Item: item, Err: err}
		}
		filters = append(filters, Filter{Prefix: strings.TrimSpace(prefix), Level: l})
	}
	return New(filters...), nil
}

// MustParse is Parse for hard-coded specs.
func MustParse(spec string) Set {
	s, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// Level resolves the effective level of a logger name.
func (s Set) Level(name string) level.Level {
	result := level.OFF
	for _, f := range s {
		if f.Matches(name) {
			result = f.Level
		}
	}
	return result
}

// Accepts reports whether a record of level l from logger name passes the set.
func (s Set) Accepts(name string, l level.Level) bool {
	return l != level.OFF && l <= s.Level(name)
}

// Max returns the most verbose level of any rule: no logger passes the set
// at a more verbose level.
func (s Set) Max() level.Level {
	result := level.OFF
	for _, f := range s {
		if f.Level.MoreVerbose(result) {
			result = f.Level
		}
	}
	return result
}

// Equal compares two normalized sets.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Set) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Merge unions the sets, keeping the most verbose level per prefix.
func Merge(sets ...Set) Set {
	byPrefix := map[string]level.Level{"": level.OFF}
	for _, s := range sets {
		for _, f := range s {
			if cur, ok := byPrefix[f.Prefix]; !ok || f.Level > cur {
				byPrefix[f.Prefix] = f.Level
			}
		}
	}
	return fromMap(byPrefix)
}

// Detail defaults used for "auto" file filters.
const (
	DefaultDelta = 2
	DefaultFloor = level.ERROR
)

// DeriveDetailed shifts every rule delta levels towards LOWEST, never below floor.
func DeriveDetailed(base Set, delta int, floor level.Level) Set {
	byPrefix := make(map[string]level.Level, len(base)+1)
	for _, f := range base {
		shifted := int(f.Level) + delta
		switch {
		case shifted > int(level.LOWEST):
			shifted = int(level.LOWEST)
		case shifted < int(level.OFF):
			shifted = int(level.OFF)
		}
		l := level.Level(shifted)
		if l < floor {
			l = floor
		}
		byPrefix[f.Prefix] = l
	}
	if _, ok := byPrefix[""]; !ok {
		byPrefix[""] = floor
	}
	return fromMap(byPrefix)
}
