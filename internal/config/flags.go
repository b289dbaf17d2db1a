// internal/config/flags.go

package config

import (
	"flag"
	"fmt"
)

// Flags are the command-line overrides of a logging configuration. A flag that
// was set on the command line always wins over the configuration file.
type Flags struct {
	ConfigFile     string
	ConsoleFilters string
	StderrLevel    string
	Colors         string
	File           string
	FileFilters    string
	FileAppend     bool
	SetSigHandler  bool
}

// Register declares the flags on fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigFile, "log-config", "", "Path to a logging configuration file (YAML)")
	fs.StringVar(&f.ConsoleFilters, "log-console-filters", DefaultConsoleFilters, "Console filters, e.g. ':output,app.db:debug'")
	fs.StringVar(&f.StderrLevel, "log-stderr-level", DefaultStderrLevel, "Console records at this level or more severe go to stderr")
	fs.StringVar(&f.Colors, "log-colors", DefaultColors, "Console color theme")
	fs.StringVar(&f.File, "log-file", "", "Also log to this file")
	fs.StringVar(&f.FileFilters, "log-file-filters", AutoFilters, "File filters, or 'auto' to derive them from the console filters")
	fs.BoolVar(&f.FileAppend, "log-file-append", true, "Append to the log file instead of truncating it")
	fs.BoolVar(&f.SetSigHandler, "log-setsighandler", true, "Flush logs on termination signals")
}

// Build loads the configuration file (or the default configuration) and
// applies the flags explicitly set on fs, which must already be parsed.
func (f *Flags) Build(fs *flag.FlagSet) (*Configuration, error) {
	return f.Apply(fs, Default())
}

// Apply overrides a copy of base with the flags explicitly set on fs. When a
// configuration file was given it replaces base.
func (f *Flags) Apply(fs *flag.FlagSet, base *Configuration) (*Configuration, error) {
	var cfg *Configuration
	if f.ConfigFile != "" {
		loaded, err := LoadConfig(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = base.Clone()
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	console := cfg.firstSection(ModuleConsole)
	if console == nil && (set["log-console-filters"] || set["log-stderr-level"] || set["log-colors"]) {
		console = Console(DefaultConsoleFilters, DefaultStderrLevel, DefaultColors)
		cfg.Add(ModuleConsole, console)
	}
	if console != nil {
		if set["log-console-filters"] {
			console.Filters = f.ConsoleFilters
		}
		if set["log-stderr-level"] {
			console.StderrLevel = f.StderrLevel
		}
		if set["log-colors"] {
			console.Colors = f.Colors
		}
	}

	file := cfg.firstSection(ModuleFile)
	if file == nil && set["log-file"] {
		file = File(f.FileFilters, f.File, f.FileAppend)
		cfg.Add(ModuleFile, file)
	}
	if file != nil {
		if set["log-file"] {
			file.Path = f.File
		}
		if set["log-file-filters"] {
			file.Filters = f.FileFilters
		}
		if set["log-file-append"] {
			appendMode := f.FileAppend
			file.Append = &appendMode
		}
	}

	if set["log-setsighandler"] {
		cfg.SetSigHandler = f.SetSigHandler
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("logging flags: %w", err)
	}
	return cfg, nil
}

// firstSection returns the first listed section of a module.
func (c *Configuration) firstSection(module string) *Section {
	for _, name := range c.Handlers {
		if s := c.Sections[name]; s != nil && NormalizeModule(s.Module) == module {
			return s
		}
	}
	return nil
}
