package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu          sync.RWMutex
	verbose     = false
	disableLogs = false
	forceStdErr = false
	noColor     = false
	stdout      = newLogger(os.Stdout)
	stderr      = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "2006-01-02 15:04:05",
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// SetVerbose sets the logging verbosity. If true, debug messages are displayed.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// DisableLogs disables all logging.
func DisableLogs() {
	mu.Lock()
	defer mu.Unlock()
	disableLogs = true
}

// IsDisabled returns true if logging is disabled.
func IsDisabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return disableLogs
}

// SetForceStdErr sends every level to the error stream.
func SetForceStdErr(v bool) {
	mu.Lock()
	defer mu.Unlock()
	forceStdErr = v
}

// SetOutput redirects both streams and disables colors. Used by tests and by
// the service when it runs without a terminal.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	noColor = true
	stdout = newLogger(out)
	stderr = newLogger(errOut)
}

// Debugf logs a debug message if verbose is true.
func Debugf(format string, args ...interface{}) {
	logMessage(zerolog.DebugLevel, "", format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logMessage(zerolog.InfoLevel, "", format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	logMessage(zerolog.WarnLevel, "", format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	logMessage(zerolog.ErrorLevel, "", format, args...)
}

// Fatalf logs an error message and exits the program.
func Fatalf(format string, args ...interface{}) {
	logMessage(zerolog.ErrorLevel, "", format, args...)
	os.Exit(1)
}

// Logger is a component logger that tags every message with the router
// instance it belongs to.
type Logger struct {
	router string
}

// Router returns a logger bound to the named router instance.
func Router(name string) *Logger {
	return &Logger{router: name}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	logMessage(zerolog.DebugLevel, l.router, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	logMessage(zerolog.InfoLevel, l.router, format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	logMessage(zerolog.WarnLevel, l.router, format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	logMessage(zerolog.ErrorLevel, l.router, format, args...)
}

// logMessage writes a message with the specified level to the appropriate stream.
func logMessage(level zerolog.Level, router string, format string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if disableLogs {
		return
	}
	if level == zerolog.DebugLevel && !verbose {
		return
	}

	logger := stdout
	if forceStdErr || level >= zerolog.ErrorLevel {
		logger = stderr
	}

	ev := logger.WithLevel(level)
	if router != "" {
		ev = ev.Str("router", router)
	}
	ev.Msgf(format, args...)
}
