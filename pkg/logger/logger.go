package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/asystent-radnego/common-go/pkg/types"
)

// Logger extends types.Logger with fatal logging and scoped fields
type Logger interface {
	types.Logger
	Fatal(msg string, args ...any)
	With(key string, value any) Logger
}

type ZeroLogger struct {
	logger zerolog.Logger
}

// New creates a console logger on stdout. Unknown levels fall back to info.
func New(level string) *ZeroLogger {
	return NewConsole(level, os.Stdout)
}

// NewConsole creates a human readable logger writing to w
func NewConsole(level string, w io.Writer) *ZeroLogger {
	return NewWithWriter(level, zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}

// NewJSON creates a logger writing one JSON object per line to w
func NewJSON(level string, w io.Writer) *ZeroLogger {
	return NewWithWriter(level, w)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(level string, w io.Writer) *ZeroLogger {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}

	z := zerolog.New(w).Level(l).With().Timestamp().Logger()

	return &ZeroLogger{logger: z}
}

func (l *ZeroLogger) Debug(msg string, args ...any) {
	l.log(l.logger.Debug(), msg, args)
}

func (l *ZeroLogger) Info(msg string, args ...any) {
	l.log(l.logger.Info(), msg, args)
}

func (l *ZeroLogger) Warn(msg string, args ...any) {
	l.log(l.logger.Warn(), msg, args)
}

func (l *ZeroLogger) Error(msg string, args ...any) {
	l.log(l.logger.Error(), msg, args)
}

func (l *ZeroLogger) Fatal(msg string, args ...any) {
	l.log(l.logger.Fatal(), msg, args)
}

func (l *ZeroLogger) With(key string, value any) Logger {
	return &ZeroLogger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *ZeroLogger) log(e *zerolog.Event, msg string, args []any) {
	if len(args) > 0 {
		e = e.Fields(toFields(args...))
	}
	e.Msg(msg)
}

// toFields pairs args into key/value fields. Errors are stored by message
// and a dangling key is dropped.
func toFields(args ...any) map[string]any {
	fields := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if err, isErr := args[i+1].(error); isErr && err != nil {
			fields[key] = err.Error()
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}
