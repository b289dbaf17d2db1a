// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/orgoj/logbridge/internal/filter"
	"github.com/orgoj/logbridge/internal/level"
)

// Handler modules.
const (
	ModuleConsole = "console"
	ModuleFile    = "file"
	ModuleSyslog  = "syslog"
	ModuleNull    = "null"
	ModuleRemote  = "remote"
	ModuleSNMP    = "snmp"
	ModuleGELF    = "gelf"
)

// Modules lists every handler module name.
var Modules = []string{ModuleConsole, ModuleFile, ModuleSyslog, ModuleNull, ModuleRemote, ModuleSNMP, ModuleGELF}

// AutoFilters as a file section filter derives it from the console filters.
const AutoFilters = "auto"

// Defaults.
const (
	DefaultConsoleFilters = ":output"
	DefaultRemoteFilters  = ":lowest"
	DefaultStderrLevel    = "warning"
	DefaultColors         = "216_dark"
	DefaultFileFormat     = "text"
	DefaultSyncTimeout    = "1s"
	DefaultFacility       = "user"
	DefaultSNMPPort       = 162
	DefaultCommunity      = "public"
	DefaultEnterpriseOID  = "1.3.6.1.4.1.8072.9999.1"
	DefaultGELFProtocol   = "udp"
	DefaultCompression    = "none"
)

// ColorThemes are the console palettes.
var ColorThemes = []string{"none", "216_dark", "truecolor_dark", "truecolor_light", "truecolor_darkgray", "truecolor_lightgray"}

// SyslogFacilities maps facility names to their syslog codes.
var SyslogFacilities = map[string]int{
	"kern": 0, "user": 1, "mail": 2, "daemon": 3, "auth": 4, "syslog": 5,
	"lpr": 6, "news": 7, "uucp": 8, "cron": 9, "authpriv": 10, "ftp": 11,
	"local0": 16, "local1": 17, "local2": 18, "local3": 19,
	"local4": 20, "local5": 21, "local6": 22, "local7": 23,
}

// ErrInvalid is wrapped by every semantic validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Rotation configures lumberjack rotation of a file section. Rotation is
// enabled when any limit is set.
type Rotation struct {
	MaxSize    string `yaml:"max_size,omitempty"` // e.g. "100MB"; a bare number is MB
	MaxAge     string `yaml:"max_age,omitempty"`  // e.g. "7d"
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"gte=0"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// Enabled reports whether any rotation limit is configured.
func (r Rotation) Enabled() bool {
	return r.MaxSize != "" || r.MaxAge != "" || r.MaxBackups > 0
}

// Section configures one handler. Which keys apply depends on Module.
type Section struct {
	Module  string `yaml:"module" validate:"required"`
	Filters string `yaml:"filters,omitempty"`

	// console
	StderrLevel string `yaml:"stderr_level,omitempty"`
	Colors      string `yaml:"colors,omitempty"`

	// file
	Path     string   `yaml:"path,omitempty"`
	Append   *bool    `yaml:"append,omitempty"`
	Format   string   `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
	Rotation Rotation `yaml:"rotation,omitempty"`

	// remote
	URL         string `yaml:"url,omitempty"`
	Bind        bool   `yaml:"bind,omitempty"`
	SyncNb      int    `yaml:"sync_nb,omitempty" validate:"gte=0"`
	SyncTimeout string `yaml:"sync_timeout,omitempty"`

	// syslog
	Facility string `yaml:"facility,omitempty"`
	Ident    string `yaml:"ident,omitempty"`
	PID      *bool  `yaml:"pid,omitempty"`
	Network  string `yaml:"network,omitempty" validate:"omitempty,oneof=udp tcp unix unixgram"`
	Address  string `yaml:"address,omitempty"`

	// snmp and gelf
	Target        string `yaml:"target,omitempty"`
	Host          string `yaml:"host,omitempty"`
	Port          int    `yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	Community     string `yaml:"community,omitempty"`
	EnterpriseOID string `yaml:"enterprise_oid,omitempty"`
	Protocol      string `yaml:"protocol,omitempty" validate:"omitempty,oneof=udp tcp"`
	Compression   string `yaml:"compression,omitempty" validate:"omitempty,oneof=none gzip zlib"`
}

// AppendMode reports whether a file section appends (the default) or truncates.
func (s *Section) AppendMode() bool {
	return s.Append == nil || *s.Append
}

// WithPID reports whether syslog lines carry the pid (the default).
func (s *Section) WithPID() bool {
	return s.PID == nil || *s.PID
}

// Configuration is the engine configuration: an ordered list of handler
// section names and the sections themselves.
type Configuration struct {
	Program       string              `yaml:"program,omitempty"`
	SetSigHandler bool                `yaml:"setsighandler"`
	Handlers      []string            `yaml:"handlers"`
	Sections      map[string]*Section `yaml:",inline" validate:"dive"`
}

// New returns an empty configuration with signal handling enabled.
func New() *Configuration {
	return &Configuration{
		SetSigHandler: true,
		Handlers:      []string{},
		Sections:      make(map[string]*Section),
	}
}

// Default returns the configuration used when none was supplied: a colored
// console at ":output" with warnings and above on stderr.
func Default() *Configuration {
	return New().Add(ModuleConsole, Console(DefaultConsoleFilters, DefaultStderrLevel, DefaultColors))
}

// Add appends a handler section under name and returns c.
func (c *Configuration) Add(name string, s *Section) *Configuration {
	if c.Sections == nil {
		c.Sections = make(map[string]*Section)
	}
	if !contains(c.Handlers, name) {
		c.Handlers = append(c.Handlers, name)
	}
	c.Sections[name] = s
	return c
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{
		Program:       c.Program,
		SetSigHandler: c.SetSigHandler,
		Handlers:      append([]string{}, c.Handlers...),
		Sections:      make(map[string]*Section, len(c.Sections)),
	}
	for name, s := range c.Sections {
		cp := *s
		out.Sections[name] = &cp
	}
	return out
}

// ProgramName returns Program, or the executable base name.
func (c *Configuration) ProgramName() string {
	if c.Program != "" {
		return c.Program
	}
	return filepath.Base(os.Args[0])
}

// Console builds a console section.
func Console(filters, stderrLevel, colors string) *Section {
	return &Section{Module: ModuleConsole, Filters: filters, StderrLevel: stderrLevel, Colors: colors}
}

// File builds a file section.
func File(filters, path string, appendMode bool) *Section {
	return &Section{Module: ModuleFile, Filters: filters, Path: path, Append: &appendMode}
}

// Remote builds a remote section that connects to url, or binds it when bind is set.
func Remote(filters, url string, bind bool, syncNb int) *Section {
	return &Section{Module: ModuleRemote, Filters: filters, URL: url, Bind: bind, SyncNb: syncNb}
}

// Syslog builds a syslog section for the local syslog daemon.
func Syslog(filters, facility string) *Section {
	return &Section{Module: ModuleSyslog, Filters: filters, Facility: facility}
}

// Null builds a section that discards everything.
func Null() *Section {
	return &Section{Module: ModuleNull, Filters: ":lowest"}
}

// NormalizeModule maps dotted module paths ("pkg.log.file_handler") and
// "_handler" suffixes to the short module name.
func NormalizeModule(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndexByte(name, '.'); i != -1 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "_handler")
}

// applyDefaults fills unset keys of every section.
func (c *Configuration) applyDefaults() {
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		s.Module = NormalizeModule(s.Module)
		switch s.Module {
		case ModuleConsole:
			setDefault(&s.Filters, DefaultConsoleFilters)
			setDefault(&s.StderrLevel, DefaultStderrLevel)
			setDefault(&s.Colors, DefaultColors)
		case ModuleFile:
			setDefault(&s.Filters, AutoFilters)
			setDefault(&s.Format, DefaultFileFormat)
		case ModuleRemote:
			setDefault(&s.Filters, DefaultRemoteFilters)
			setDefault(&s.SyncTimeout, DefaultSyncTimeout)
		case ModuleSyslog:
			setDefault(&s.Filters, DefaultConsoleFilters)
			setDefault(&s.Facility, DefaultFacility)
		case ModuleSNMP:
			setDefault(&s.Filters, ":critical")
			setDefault(&s.Community, DefaultCommunity)
			setDefault(&s.EnterpriseOID, DefaultEnterpriseOID)
			if s.Port == 0 {
				s.Port = DefaultSNMPPort
			}
		case ModuleGELF:
			setDefault(&s.Filters, ":warning")
			setDefault(&s.Protocol, DefaultGELFProtocol)
			setDefault(&s.Compression, DefaultCompression)
		case ModuleNull:
			setDefault(&s.Filters, ":lowest")
		}
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Parse decodes and validates a YAML configuration. A document without a
// handlers key gets the default console handler.
func Parse(data []byte) (*Configuration, error) {
	cfg := New()
	cfg.Handlers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}
	cfg.fillDefaultHandlers()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaultHandlers gives a configuration whose handlers key was absent the
// default console handler. An explicit empty list is kept.
func (c *Configuration) fillDefaultHandlers() {
	if c.Handlers != nil {
		return
	}
	def := Default()
	c.Handlers = def.Handlers
	if c.Sections == nil {
		c.Sections = make(map[string]*Section)
	}
	if _, ok := c.Sections[ModuleConsole]; !ok {
		c.Sections[ModuleConsole] = def.Sections[ModuleConsole]
	}
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", path, err)
	}
	return cfg, nil
}

// ValidateConfig fills defaults, then runs struct-tag validation followed by
// the semantic checks.
func ValidateConfig(cfg *Configuration) error {
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, fmt.Sprintf("field validation for '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
	}

	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// validateConfig checks what struct tags cannot express.
func validateConfig(cfg *Configuration) error {
	seen := make(map[string]bool, len(cfg.Handlers))
	for _, name := range cfg.Handlers {
		if seen[name] {
			return fmt.Errorf("handlers: '%s' listed twice", name)
		}
		seen[name] = true

		s, ok := cfg.Sections[name]
		if !ok || s == nil {
			return fmt.Errorf("handlers: no section named '%s'", name)
		}
		if err := validateSection(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func validateSection(s *Section) error {
	if !contains(Modules, s.Module) {
		return fmt.Errorf("unknown module '%s' (expected one of %s)", s.Module, strings.Join(Modules, ", "))
	}
	if s.Filters != AutoFilters {
		if _, err := filter.Parse(s.Filters); err != nil {
			return fmt.Errorf("filters: %w", err)
		}
	}

	switch s.Module {
	case ModuleConsole:
		if _, err := level.Parse(s.StderrLevel); err != nil {
			return fmt.Errorf("stderr_level: %w", err)
		}
		if !contains(ColorThemes, s.Colors) {
			return fmt.Errorf("colors: unknown theme '%s' (expected one of %s)", s.Colors, strings.Join(ColorThemes, ", "))
		}
	case ModuleFile:
		if s.Path == "" {
			return errors.New("path cannot be empty")
		}
		if s.Rotation.MaxSize != "" {
			if _, err := ParseSize(s.Rotation.MaxSize); err != nil {
				return fmt.Errorf("rotation.max_size: %w", err)
			}
		}
		if s.Rotation.MaxAge != "" {
			if _, err := ParseDuration(s.Rotation.MaxAge); err != nil {
				return fmt.Errorf("rotation.max_age: %w", err)
			}
		}
	case ModuleRemote:
		if s.URL == "" {
			return errors.New("url cannot be empty")
		}
		if _, err := ParseDuration(s.SyncTimeout); err != nil {
			return fmt.Errorf("sync_timeout: %w", err)
		}
	case ModuleSyslog:
		if _, ok := SyslogFacilities[strings.ToLower(s.Facility)]; !ok {
			return fmt.Errorf("facility: unknown facility '%s'", s.Facility)
		}
		if s.Network != "" && s.Address == "" {
			return errors.New("address is required when network is set")
		}
	case ModuleSNMP:
		if s.Target == "" {
			return errors.New("target cannot be empty")
		}
	case ModuleGELF:
		if s.Host == "" {
			return errors.New("host cannot be empty")
		}
		if s.Port <= 0 {
			return errors.New("valid port is required")
		}
	}
	if s.Module != ModuleFile && s.Filters == AutoFilters {
		return fmt.Errorf("filters: '%s' is only supported by file sections", AutoFilters)
	}
	return nil
}

// ConsoleFilters returns the filters of the first listed console section, or
// the default console filters.
func (c *Configuration) ConsoleFilters() filter.Set {
	for _, name := range c.Handlers {
		if s := c.Sections[name]; s != nil && NormalizeModule(s.Module) == ModuleConsole {
			if set, err := filter.Parse(s.Filters); err == nil {
				return set
			}
		}
	}
	return filter.MustParse(DefaultConsoleFilters)
}

// SectionFilters resolves the filter set of a listed section; "auto" becomes
// the console filters made two levels more detailed, floored at ERROR.
func (c *Configuration) SectionFilters(name string) (filter.Set, error) {
	s, ok := c.Sections[name]
	if !ok || s == nil {
		return nil, fmt.Errorf("no section named '%s'", name)
	}
	if s.Filters == AutoFilters {
		return filter.DeriveDetailed(c.ConsoleFilters(), filter.DefaultDelta, filter.DefaultFloor), nil
	}
	return filter.Parse(s.Filters)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
