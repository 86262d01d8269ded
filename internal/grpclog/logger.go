package grpclog

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Level mirrors the small set of severities this module actually emits.
// It is intentionally coarser than logiface.Level (which models the full
// syslog ladder) since nothing here needs more than four buckets.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) logifaceLevel() logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelWarning
	}
}

// Field is a single structured key/value pair attached to an Entry.
type Field struct {
	Key   string
	Value any
}

// Entry is one structured log record.
type Entry struct {
	Level     Level
	Component string // e.g. "timerwheel", "wsched", "ztrace"
	Message   string
	Fields    []Field
	Err       error
}

// Logger is the interface every package in this module logs through.
// Swap the global instance with SetLogger to integrate with an external
// logging pipeline.
type Logger interface {
	Log(Entry)
	Enabled(Level) bool
}

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

func init() {
	SetLogger(NewStumpyLogger(LevelWarn))
}

// SetLogger replaces the package-level logger used by every component in
// this module.
func SetLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func current() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// Log records entry against the current global logger, doing nothing if
// the logger is nil or the entry's level isn't enabled.
func Log(entry Entry) {
	l := current()
	if l == nil || !l.Enabled(entry.Level) {
		return
	}
	l.Log(entry)
}

func Debug(component, message string, fields ...Field) {
	Log(Entry{Level: LevelDebug, Component: component, Message: message, Fields: fields})
}

func Warn(component, message string, fields ...Field) {
	Log(Entry{Level: LevelWarn, Component: component, Message: message, Fields: fields})
}

func Error(component, message string, err error, fields ...Field) {
	Log(Entry{Level: LevelError, Component: component, Message: message, Fields: fields, Err: err})
}

// stumpyLogger is the default Logger, backed by logiface's stumpy JSON
// backend (the corpus's own canonical logiface writer).
type stumpyLogger struct {
	level  Level
	logger *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a Logger that writes newline-delimited JSON to
// stderr via stumpy, enabled for level and above.
func NewStumpyLogger(level Level) Logger {
	return &stumpyLogger{
		level: level,
		logger: stumpy.L.New(
			stumpy.L.WithStumpy(),
			logiface.WithLevel[*stumpy.Event](logiface.LevelTrace),
		),
	}
}

func (s *stumpyLogger) Enabled(level Level) bool {
	return level >= s.level
}

func (s *stumpyLogger) Log(entry Entry) {
	b := s.logger.Build(entry.Level.logifaceLevel())
	if b == nil {
		return
	}
	if entry.Component != `` {
		b = b.Str(`component`, entry.Component)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	for _, f := range entry.Fields {
		b = b.Any(f.Key, f.Value)
	}
	b.Log(entry.Message)
}

// NoopLogger discards everything; useful in tests that want quiet output.
type NoopLogger struct{}

func (NoopLogger) Log(Entry)          {}
func (NoopLogger) Enabled(Level) bool { return false }
