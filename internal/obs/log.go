package obs

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yanun0323/logs"
)

// Logger is the logging handle passed explicitly to components.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// LogsLogger writes through the process-wide yanun0323/logs sink, dropping
// lines below its level.
type LogsLogger struct {
	level zerolog.Level
}

// NewLogsLogger returns the console logger. The level uses zerolog names and
// falls back to info when it cannot be parsed.
func NewLogsLogger(level string) LogsLogger {
	return LogsLogger{level: parseLevel(level)}
}

// Level reports the active level.
func (l LogsLogger) Level() zerolog.Level {
	return l.level
}

func (l LogsLogger) Infof(format string, args ...any) {
	if l.level > zerolog.InfoLevel {
		return
	}
	logs.Infof(format, args...)
}

func (l LogsLogger) Errorf(format string, args ...any) {
	if l.level > zerolog.ErrorLevel {
		return
	}
	logs.Errorf(format, args...)
}

// ZerologLogger emits structured JSON lines.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds a JSON logger at the given level, falling back to
// info when the level cannot be parsed.
func NewZerologLogger(w io.Writer, level string) ZerologLogger {
	return ZerologLogger{log: zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// With returns a copy that stamps every line with key=value.
func (l ZerologLogger) With(key, value string) ZerologLogger {
	return ZerologLogger{log: l.log.With().Str(key, value).Logger()}
}

// Level reports the active level.
func (l ZerologLogger) Level() zerolog.Level {
	return l.log.GetLevel()
}

func (l ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}

// Safe wraps a logger so that a failing sink never reaches the caller.
func Safe(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	if s, ok := l.(safeLogger); ok {
		return s
	}
	return safeLogger{next: l}
}

type safeLogger struct {
	next Logger
}

func (s safeLogger) Infof(format string, args ...any) {
	defer func() { _ = recover() }()
	s.next.Infof(format, args...)
}

func (s safeLogger) Errorf(format string, args ...any) {
	defer func() { _ = recover() }()
	s.next.Errorf(format, args...)
}
