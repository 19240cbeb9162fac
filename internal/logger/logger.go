package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "INFO":
		return InfoLevel
	case "DEBUG":
		return DebugLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	}
	return InfoLevel
}

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrus(l logrus.Level) Level {
	switch l {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DebugLevel
	case logrus.InfoLevel:
		return InfoLevel
	case logrus.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// formatter prints entries as "[LEVEL] message", followed by any fields.
type formatter struct{}

func (formatter) Format(e *logrus.Entry) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", fromLogrus(e.Level), e.Message)
	for k, v := range e.Data {
		fmt.Fprintf(&sb, " %s=%v", k, v)
	}
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

type Logger struct {
	l *logrus.Logger
}

func New(w io.Writer, level Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level.logrus())
	l.SetFormatter(formatter{})
	return &Logger{l: l}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, ErrorLevel)
}

func (l *Logger) Debug(msg string) { l.l.Debug(msg) }
func (l *Logger) Info(msg string)  { l.l.Info(msg) }
func (l *Logger) Warn(msg string)  { l.l.Warn(msg) }
func (l *Logger) Error(msg string) { l.l.Error(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.l.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.l.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.l.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.l.Errorf(format, args...) }
