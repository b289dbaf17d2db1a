// internal/validation/input.go

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxInputLength bounds logger names and patterns received by the
// admin API.
const DefaultMaxInputLength = 256

// Logger names are dotted paths; '~' is reserved for exact filter rules.
var loggerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_:/-]+(\.[a-zA-Z0-9_:/-]+)*$`)

// ErrInputTooLong indicates the input string exceeds the maximum allowed length.
var ErrInputTooLong = errors.New("input exceeds maximum length")

// ErrInvalidChars indicates the input string contains disallowed characters.
var ErrInvalidChars = errors.New("input contains invalid characters")

// LoggerName checks a logger name given by a client.
func LoggerName(name string, maxLength int) error {
	if len(name) > maxLength {
		return fmt.Errorf("%w: got %d, max %d", ErrInputTooLong, len(name), maxLength)
	}
	if !loggerNameRegex.MatchString(name) {
		return fmt.Errorf("%w: logger names are dot separated components of alphanumerics, '_', '-', ':' and '/'", ErrInvalidChars)
	}
	return nil
}

// Pattern checks a logger name pattern given by a client. The glob syntax
// itself is checked when the pattern is compiled.
func Pattern(pattern string, maxLength int) error {
	if len(pattern) > maxLength {
		return fmt.Errorf("%w: got %d, max %d", ErrInputTooLong, len(pattern), maxLength)
	}
	for _, r := range pattern {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q", ErrInvalidChars, r)
		}
	}
	return nil
}

// SanitizeString removes non-printable characters (excluding space), trims
// whitespace and truncates to maxLength bytes.
func SanitizeString(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.Map(func(r rune) rune {
		if r == ' ' || (unicode.IsPrint(r) && r != '\uFFFD') {
			return r
		}
		return -1
	}, s)
}
