package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// Options selects output, format and level. Zero value logs info+ as text to stderr.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	Output io.Writer
}

func New(opt Options) *Logger {
	base := logrus.New()

	if strings.EqualFold(opt.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	out := opt.Output
	if out == nil {
		out = os.Stderr
	}
	base.SetOutput(out)
	base.SetLevel(parseLevel(opt.Level))

	return &Logger{Entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything; handy for tests and library callers.
func Discard() *Logger {
	return New(Options{Output: io.Discard, Level: "error"})
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithRun tags every entry with a fresh run id and returns it alongside the logger.
func (l *Logger) WithRun() (*Logger, string) {
	id := uuid.New().String()
	return &Logger{Entry: l.Entry.WithField("run_id", id)}, id
}

// Component scopes the logger to a named subsystem.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
