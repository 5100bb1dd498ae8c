package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMu   sync.RWMutex
	logger  = newLogger(os.Stderr)
	logFile *os.File
	logsDir string
)

func newLogger(outputs ...io.Writer) zerolog.Logger {
	writers := make([]io.Writer, 0, len(outputs))
	for _, out := range outputs {
		if out == os.Stderr || out == os.Stdout {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
		}
		writers = append(writers, out)
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("service", "pdmirror").
		Logger()
}

// ConfigureDebug starts a fresh log file under dir and tees every record to it
// and to stderr.
func ConfigureDebug(dir string) {
	configure(dir, os.Stderr)
}

// ConfigureFileOnly is ConfigureDebug without the stderr copy. Records are
// dropped when the file cannot be opened.
func ConfigureFileOnly(dir string) {
	configure(dir, nil)
}

func configure(dir string, console io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logsDir = dir

	name := fmt.Sprintf("pdmirror-%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if console == nil {
			logger = zerolog.Nop()
			return
		}
		logger = newLogger(console)
		logger.Warn().Err(err).Msg("file logging disabled")
		return
	}
	logFile = f
	if console == nil {
		logger = newLogger(f)
		return
	}
	logger = newLogger(console, f)
}

// SetOutput routes all logging to w. Used by the terminal dashboard, which
// owns stderr while it runs.
func SetOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Log returns the shared structured logger.
func Log() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

// Debug writes a debug-level message
func Debug(format string, args ...any) {
	Log().Debug().Msgf(format, args...)
}

// Info writes an info-level message
func Info(format string, args ...any) {
	Log().Info().Msgf(format, args...)
}

// Warn writes a warning
func Warn(format string, args ...any) {
	Log().Warn().Msgf(format, args...)
}

// Error writes an error-level message
func Error(format string, args ...any) {
	Log().Error().Msgf(format, args...)
}

// CleanupLogs keeps the newest retention log files in the configured logs
// directory and removes the rest.
func CleanupLogs(retention int) {
	logMu.RLock()
	dir := logsDir
	logMu.RUnlock()
	if dir == "" || retention <= 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var logs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "pdmirror-") || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		logs = append(logs, e.Name())
	}
	if len(logs) <= retention {
		return
	}

	// Names embed the start time, so lexical order is chronological.
	sort.Strings(logs)
	for _, name := range logs[:len(logs)-retention] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			Debug("failed to remove old log %s: %v", name, err)
		}
	}
}
