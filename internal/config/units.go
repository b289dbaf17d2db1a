// internal/config/units.go

package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a positive duration such as "500ms", "1h30m" or "7d".
// On top of time.ParseDuration units it accepts a "d" suffix for days.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("duration string cannot be empty")
	}

	if days, ok := strings.CutSuffix(strings.ToLower(s), "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format for days in '%s': %w", s, err)
		}
		if n <= 0 || n > int64(math.MaxInt64/(24*time.Hour)) {
			return 0, fmt.Errorf("duration must be positive and bounded: '%s'", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format '%s': %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: '%s'", s)
	}
	return d, nil
}

var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"KB", 1 << 10}, {"K", 1 << 10},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"GB", 1 << 30}, {"G", 1 << 30},
}

// ParseSize parses a byte size such as "1024", "10K" or "100MB" (case-insensitive).
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("size string cannot be empty")
	}

	num, multiplier := s, int64(1)
	for _, sfx := range sizeSuffixes {
		if trimmed, ok := strings.CutSuffix(s, sfx.suffix); ok {
			num, multiplier = strings.TrimSpace(trimmed), sfx.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format in size string '%s'", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("size cannot be negative: %d", n)
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size value '%s' overflows int64", s)
	}
	return n * multiplier, nil
}
