// default.go

package logbridge

// Package-level functions operate on the Default context. Emit functions
// log through the root logger, named "".

// Configure stores cfg in the default context.
func Configure(cfg *Configuration) error { return defaultContext.Configure(cfg) }

// Init initializes the default context.
func Init() error { return defaultContext.Init() }

// Cleanup releases the default context.
func Cleanup(flush bool) error { return defaultContext.Cleanup(flush) }

// Flush flushes the default context.
func Flush() error { return defaultContext.Flush() }

// IsConfigured reports whether the default context is initialized.
func IsConfigured() bool { return defaultContext.IsConfigured() }

// GetLogger returns the named logger of the default context.
func GetLogger(name string) *Logger { return defaultContext.Logger(name) }

// Loggers returns the loggers of the default context.
func Loggers() []*Logger { return defaultContext.Loggers() }

// SetLevel overrides the level of a logger of the default context.
func SetLevel(name string, l Level) { defaultContext.SetLevel(name, l) }

// RedirectStdLog routes the standard library logger to the default context.
func RedirectStdLog(name string, l Level) func() { return defaultContext.RedirectStdLog(name, l) }

// RunWorker runs a worker body on the default context.
func RunWorker(cfg *Configuration, fn func() error) int { return defaultContext.RunWorker(cfg, fn) }

// Main runs a worker body on the default context and exits.
func Main(cfg *Configuration, fn func() error) { defaultContext.Main(cfg, fn) }

// Exit releases the default context and exits.
func Exit(code int) { defaultContext.Exit(code) }

func root() *Logger { return defaultContext.Logger("") }

func Off(format string, args ...interface{}) error { return root().Off(format, args...) }

func Panic(format string, args ...interface{}) error { return root().log(1, PANIC, format, args) }

func Alert(format string, args ...interface{}) error { return root().log(1, ALERT, format, args) }

func Critical(format string, args ...interface{}) error {
	return root().log(1, CRITICAL, format, args)
}

func Error(format string, args ...interface{}) error { return root().log(1, ERROR, format, args) }

func Warning(format string, args ...interface{}) error {
	return root().log(1, WARNING, format, args)
}

func Notice(format string, args ...interface{}) error { return root().log(1, NOTICE, format, args) }

func Output(format string, args ...interface{}) error { return root().log(1, OUTPUT, format, args) }

func Info(format string, args ...interface{}) error { return root().log(1, INFO, format, args) }

func Debug(format string, args ...interface{}) error { return root().log(1, DEBUG, format, args) }

func Fine(format string, args ...interface{}) error { return root().log(1, FINE, format, args) }

func Trace(format string, args ...interface{}) error { return root().log(1, TRACE, format, args) }

func Lowest(format string, args ...interface{}) error { return root().log(1, LOWEST, format, args) }

// Exception reports err and its causes through the root logger.
func Exception(err error, format string, args ...interface{}) error {
	return root().exception(1, ERROR, err, format, args)
}
