// Package logger wraps logrus in a small thread-safe façade that takes
// structured fields rather than letting call sites hand-build log lines
// with fmt.Sprintf.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a structured field set attached to a single log line.
type Fields map[string]interface{}

// Logger is the structured logging interface every component in this
// module depends on (accept an interface, in the Go idiom, rather than a
// concrete *logrus.Logger).
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	Fatal(msg string, fields Fields)
}

// safeLogger is a thread-safe logrus-backed Logger.
type safeLogger struct {
	logger *logrus.Logger
	mu     sync.Mutex
}

// New builds a Logger writing text-formatted, timestamped lines to stdout
// at the given level, the formatter a cobra-driven daemon command wants
// for readable operator-facing output.
func New(level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(level)

	return &safeLogger{logger: l}
}

func (s *safeLogger) log(level logrus.Level, msg string, fields Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.logger.WithFields(logrus.Fields(fields))

	switch level {
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.InfoLevel:
		entry.Info(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	case logrus.FatalLevel:
		entry.Fatal(msg)
	}
}

func (s *safeLogger) Debug(msg string, fields Fields) { s.log(logrus.DebugLevel, msg, fields) }
func (s *safeLogger) Info(msg string, fields Fields)  { s.log(logrus.InfoLevel, msg, fields) }
func (s *safeLogger) Warn(msg string, fields Fields)  { s.log(logrus.WarnLevel, msg, fields) }
func (s *safeLogger) Error(msg string, fields Fields) { s.log(logrus.ErrorLevel, msg, fields) }
func (s *safeLogger) Fatal(msg string, fields Fields) { s.log(logrus.FatalLevel, msg, fields) }

// Noop returns a Logger that discards everything, useful for tests that
// don't care about log output.
func Noop() Logger {
	l := logrus.New()
	l.SetOutput(noopWriter{})

	return &safeLogger{logger: l}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
