package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFile = "trash.log"

// Options configures Setup
type Options struct {
	Verbosity    int       // 0 file only, 1 INFO, 2 DEBUG, 3+ TRACE on the console
	Dir          string    // Directory holding the log file, empty disables file logging
	RotationDays int       // Age after which the log file is rotated
	Console      io.Writer // Console destination for verbose output (default: os.Stderr)
}

// Setup configures the global logger.
// Diagnostics always go to the log file; the console only sees them when verbose,
// since stdout and stderr carry the prompts and the run report.
func Setup(opts Options) (io.Closer, error) {
	switch opts.Verbosity {
	case 0, 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	var writers []io.Writer
	if opts.Verbosity > 0 {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	}

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.Dir != "" {
		path := filepath.Join(opts.Dir, logFile)
		f, err := openLogFile(path, opts.RotationDays)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, f)
			closer = f
		}
	}

	var logger zerolog.Logger
	if len(writers) == 0 {
		logger = zerolog.Nop()
	} else {
		logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	}
	if opts.Verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	return closer, fileErr
}

// For returns a child logger tagged with the component name
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

func openLogFile(path string, rotationDays int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if rotationDays <= 0 {
		rotationDays = 30
	}
	rotateLogsIfNeeded(path, rotationDays)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// rotateLogsIfNeeded rotates the log file once it is older than rotationDays
func rotateLogsIfNeeded(logPath string, rotationDays int) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)
	if info.ModTime().Before(cutoffTime) {
		timestamp := info.ModTime().Format("20060102-150405")
		rotatedPath := logPath + "." + timestamp

		if err := os.Rename(logPath, rotatedPath); err != nil {
			return
		}
		// Retention counts from rotation, not from the last write
		now := time.Now()
		_ = os.Chtimes(rotatedPath, now, now)

		cleanupOldLogs(logPath, rotationDays)
	}
}

// cleanupOldLogs removes rotated log files older than rotationDays
func cleanupOldLogs(logPath string, rotationDays int) {
	logDir := filepath.Dir(logPath)
	baseName := filepath.Base(logPath)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	cutoffTime := time.Now().AddDate(0, 0, -rotationDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, baseName+".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			_ = os.Remove(filepath.Join(logDir, name))
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
