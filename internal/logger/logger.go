// Package logger wraps logrus behind a small interface so packages depend on
// the methods they call rather than a concrete logging library.
package logger

type Fields map[string]any

type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}
