package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level controls which log entries a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name used in log entries.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level. Unrecognized names
// default to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging for prowl components.
// All loggers in a process append to the same run-specific file under
// ~/.prowl/logs/, so one run produces one log file.
type Logger struct {
	runID     string
	component string
	minLevel  Level
	file      *os.File
	logger    *log.Logger
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

var (
	stateMu sync.Mutex

	// runID identifies the current process execution
	runID string

	// logDir is the directory where log files are stored
	logDir   string
	initDone bool
	initErr  error
)

func getRunID() string {
	stateMu.Lock()
	defer stateMu.Unlock()

	if runID == "" {
		runID = uuid.New().String()
	}
	return runID
}

func initLogDirectory() error {
	stateMu.Lock()
	defer stateMu.Unlock()

	if initDone {
		return initErr
	}
	initDone = true

	homeDir, err := os.UserHomeDir()
	if err != nil {
		initErr = fmt.Errorf("failed to get home directory: %w", err)
		return initErr
	}

	logDir = filepath.Join(homeDir, ".prowl", "logs")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		initErr = fmt.Errorf("failed to create log directory: %w", err)
	}
	return initErr
}

// NewLogger creates a logger for a specific component, writing to
// ~/.prowl/logs/<run-id>-prowl.log. The minimum level is taken from the
// PROWL_LOG_LEVEL environment variable (default: info).
//
// If the log directory or file cannot be created, a stderr-backed
// logger is returned together with the error so callers can detect
// fallback mode.
func NewLogger(component string) (*Logger, error) {
	minLevel := ParseLevel(os.Getenv("PROWL_LOG_LEVEL"))

	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, minLevel, err), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-prowl.log", id))

	// Append mode: multiple components share the run's log file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		wrapped := fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, minLevel, wrapped), wrapped
	}

	return &Logger{
		runID:     id,
		component: component,
		minLevel:  minLevel,
		file:      file,
		logger:    log.New(file, "", 0), // timestamps are formatted below
		logPath:   logPath,
	}, nil
}

func newFallbackLogger(component string, minLevel Level, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	logger.Printf("WARNING: file logging unavailable, using stderr: %v", err)

	return &Logger{
		runID:     getRunID(),
		component: component,
		minLevel:  minLevel,
		logger:    logger,
	}
}

// LogPath returns the path of the log file, or "" in fallback mode.
func (l *Logger) LogPath() string {
	return l.logPath
}

// SetMinLevel overrides the logger's minimum level.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, v...)
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, format, v...)
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, format, v...)
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

// Close closes the underlying log file. Safe to call more than once.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
