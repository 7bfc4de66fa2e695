package internal

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// logLevel is shared by every logger created by [NewLogger],
// so the level can be changed once from the configuration.
var logLevel = new(slog.LevelVar)

// SetLogLevel sets the minimum level of all the stage loggers.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

type Logger struct {
	*slog.Logger

	kind string
	name string
}

func NewLogger(stageKind, stageName string) *Logger {
	var handler slog.Handler

	if runtime.GOOS == "windows" {
		w := colorable.NewColorableStdout()
		handler = tint.NewHandler(w, &tint.Options{Level: logLevel})
	} else {
		w := os.Stderr
		handler = tint.NewHandler(w, &tint.Options{
			Level:   logLevel,
			NoColor: !isatty.IsTerminal(w.Fd()),
		})
	}

	return newLogger(handler, stageKind, stageName)
}

// NewLoggerWithWriter returns a logger without colors writing into w.
func NewLoggerWithWriter(w io.Writer, stageKind, stageName string) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:   logLevel,
		NoColor: true,
	})

	return newLogger(handler, stageKind, stageName)
}

func newLogger(handler slog.Handler, stageKind, stageName string) *Logger {
	return &Logger{
		Logger: slog.New(handler),

		kind: stageKind,
		name: stageName,
	}
}

func (l *Logger) getInfo() slog.Attr {
	return slog.Group("stage", slog.String("kind", l.kind), slog.String("name", l.name))
}

func (l *Logger) getArgs(args ...any) []any {
	return append([]any{l.getInfo()}, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.getArgs(args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.getArgs(args...)...)
}

func (l *Logger) Error(msg string, err error, args ...any) {
	tmpArgs := append([]any{tint.Err(err)}, args...)
	l.Logger.Error(msg, l.getArgs(tmpArgs...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.getArgs(args...)...)
}
