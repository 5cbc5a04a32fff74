package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Version is stamped into the startup line.
const Version = "0.3.0"

var (
	// Logger is the global logger instance
	Logger *log.Logger

	// logFile is the file handle for the log file
	logFile *os.File

	mu sync.Mutex
)

// Options selects where log output goes.
type Options struct {
	// Dir receives a dated log file. Empty means Stderr.
	Dir string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Stderr forces output to stderr even when Dir is set.
	Stderr bool
}

// Init initializes the logging system
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	var out io.Writer = os.Stderr
	if opts.Dir != "" && !opts.Stderr {
		logDir := filepath.Join(opts.Dir, "logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		logFileName := fmt.Sprintf("skydeck-%s.log", time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = f
	}

	Logger = log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(opts.Level),
	})

	Logger.Info("skydeck started", "version", Version)
	return nil
}

// SetOutput points the global logger at w. Used by tests and one-shot commands.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	Logger = log.NewWithOptions(w, log.Options{Level: parseLevel(level)})
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if Logger != nil {
		Logger.Info("skydeck shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// WithPrefix returns a logger with a prefix. Before Init it returns a
// logger that discards everything.
func WithPrefix(prefix string) *log.Logger {
	if Logger != nil {
		return Logger.WithPrefix(prefix)
	}
	return log.NewWithOptions(io.Discard, log.Options{Prefix: prefix})
}
