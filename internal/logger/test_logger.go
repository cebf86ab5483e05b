package logger

import (
	"fmt"
	"maps"
	"sync"
)

type entryStorage struct {
	mu      sync.RWMutex
	entries []Entry
}

// TestLogger captures log entries in memory for assertions in tests.
type TestLogger struct {
	storage *entryStorage
	fields  Fields
}

type Entry struct {
	Level   string
	Message string
	Fields  Fields
}

func NewTestLogger() *TestLogger {
	return &TestLogger{
		storage: &entryStorage{},
		fields:  make(Fields),
	}
}

func (l *TestLogger) record(level, message string) {
	l.storage.mu.Lock()
	defer l.storage.mu.Unlock()

	fields := make(Fields)
	maps.Copy(fields, l.fields)

	l.storage.entries = append(l.storage.entries, Entry{
		Level:   level,
		Message: message,
		Fields:  fields,
	})
}

func (l *TestLogger) Debug(args ...any) {
	l.record("debug", fmt.Sprint(args...))
}

func (l *TestLogger) Info(args ...any) {
	l.record("info", fmt.Sprint(args...))
}

func (l *TestLogger) Warn(args ...any) {
	l.record("warn", fmt.Sprint(args...))
}

func (l *TestLogger) Error(args ...any) {
	l.record("error", fmt.Sprint(args...))
}

func (l *TestLogger) Fatal(args ...any) {
	l.record("fatal", fmt.Sprint(args...))
}

func (l *TestLogger) WithFields(fields Fields) Logger {
	merged := make(Fields)
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)

	return &TestLogger{
		storage: l.storage,
		fields:  merged,
	}
}

func (l *TestLogger) WithField(key string, value any) Logger {
	return l.WithFields(Fields{key: value})
}

func (l *TestLogger) WithError(err error) Logger {
	return l.WithFields(Fields{"error": err})
}

func (l *TestLogger) Entries() []Entry {
	l.storage.mu.RLock()
	defer l.storage.mu.RUnlock()
	return append([]Entry{}, l.storage.entries...)
}

func (l *TestLogger) HasEntry(level, message string) bool {
	for _, entry := range l.Entries() {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}

func (l *TestLogger) Clear() {
	l.storage.mu.Lock()
	defer l.storage.mu.Unlock()
	l.storage.entries = nil
}
