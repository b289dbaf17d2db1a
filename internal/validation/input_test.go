package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple", input: "app"},
		{name: "dotted", input: "app.db.pool"},
		{name: "punctuation", input: "svc-1.http_server:8080/api"},
		{name: "empty", input: "", wantErr: ErrInvalidChars},
		{name: "leading dot", input: ".app", wantErr: ErrInvalidChars},
		{name: "double dot", input: "app..db", wantErr: ErrInvalidChars},
		{name: "exact marker", input: "~app", wantErr: ErrInvalidChars},
		{name: "space", input: "my app", wantErr: ErrInvalidChars},
		{name: "too long", input: strings.Repeat("a", DefaultMaxInputLength+1), wantErr: ErrInputTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoggerName(tt.input, DefaultMaxInputLength)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPattern(t *testing.T) {
	assert.NoError(t, Pattern("app.{db,http}.**", DefaultMaxInputLength))
	assert.NoError(t, Pattern("", DefaultMaxInputLength))
	assert.ErrorIs(t, Pattern("app *", DefaultMaxInputLength), ErrInvalidChars)
	assert.ErrorIs(t, Pattern("app\x00", DefaultMaxInputLength), ErrInvalidChars)
	assert.ErrorIs(t, Pattern("abcd", 3), ErrInputTooLong)
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"  hello  ", 256, "hello"},
		{"tab\there", 256, "tabhere"},
		{"bell\a", 256, "bell"},
		{"truncate me", 8, "truncate"},
		{"ěščř", 256, "ěščř"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input, tt.max))
		})
	}
}
