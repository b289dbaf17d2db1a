// logbridge.go

// Package logbridge is a leveled, prefix-filtered logging engine with
// pluggable handlers (console, file, syslog, null, remote, snmp, gelf) and a
// pub/sub bridge that carries records from many processes to a receiver.
//
// A Context owns the engine state: configuration, handler chain and logger
// registry. Package-level functions operate on the process-wide Default
// context, which initializes itself with a console handler on first use.
//
//	cfg := logbridge.NewConfig().
//		Add("console", logbridge.ConsoleSection(":output", "warning", "216_dark")).
//		Add("file", logbridge.FileSection("auto", "/var/log/app.log", true))
//	if err := logbridge.Configure(cfg); err != nil {
//		...
//	}
//	defer logbridge.Cleanup(true)
//
//	log := logbridge.GetLogger("app.db")
//	log.Info("connected to %s", dsn)
package logbridge

import (
	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
)

// Level is a record severity; lower values are more severe.
type Level = level.Level

// Levels, from most severe to most verbose.
const (
	OFF      = level.OFF
	PANIC    = level.PANIC
	ALERT    = level.ALERT
	CRITICAL = level.CRITICAL
	ERROR    = level.ERROR
	WARNING  = level.WARNING
	NOTICE   = level.NOTICE
	OUTPUT   = level.OUTPUT
	INFO     = level.INFO
	DEBUG    = level.DEBUG
	FINE     = level.FINE
	TRACE    = level.TRACE
	LOWEST   = level.LOWEST
)

// FilterSet is an ordered list of prefix:level rules.
type FilterSet = filter.Set

// Configuration lists the handler sections of an engine.
type Configuration = config.Configuration

// Section configures one handler.
type Section = config.Section

// Flags are the -log-* command-line overrides of a configuration: Register
// them on a flag.FlagSet, parse, then Build or Apply.
type Flags = config.Flags

// ParseLevel parses a level name, alias or rank.
func ParseLevel(s string) (Level, error) {
	return level.Parse(s)
}

// LevelNames returns the canonical level names, OFF first.
func LevelNames() []string {
	return level.Names()
}

// ParseFilters parses a filter string such as ":output,~a.bar:debug".
func ParseFilters(spec string) (FilterSet, error) {
	return filter.Parse(spec)
}

// MergeFilters keeps the most verbose level of each prefix.
func MergeFilters(sets ...FilterSet) FilterSet {
	return filter.Merge(sets...)
}

// DeriveDetailed makes every rule delta levels more verbose, never less
// verbose than floor.
func DeriveDetailed(base FilterSet, delta int, floor Level) FilterSet {
	return filter.DeriveDetailed(base, delta, floor)
}

// NewConfig returns an empty configuration with signal handling enabled.
func NewConfig() *Configuration {
	return config.New()
}

// DefaultConfig returns the console-only configuration used when none is given.
func DefaultConfig() *Configuration {
	return config.Default()
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Configuration, error) {
	return config.LoadConfig(path)
}

// ConsoleSection builds a console handler section.
func ConsoleSection(filters, stderrLevel, colors string) *Section {
	return config.Console(filters, stderrLevel, colors)
}

// FileSection builds a file handler section; filters may be "auto".
func FileSection(filters, path string, appendMode bool) *Section {
	return config.File(filters, path, appendMode)
}

// RemoteSection builds a remote handler section.
func RemoteSection(filters, url string, bind bool, syncNb int) *Section {
	return config.Remote(filters, url, bind, syncNb)
}

// SyslogSection builds a syslog handler section.
func SyslogSection(filters, facility string) *Section {
	return config.Syslog(filters, facility)
}

// NullSection builds a handler section that discards everything.
func NullSection() *Section {
	return config.Null()
}
