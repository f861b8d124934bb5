// Package log is a leveled structured logger built on zerolog.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var logger atomic.Pointer[zerolog.Logger]

// logFile is the file the logger writes to, if any. It is closed when Init
// replaces it.
var (
	logFileMu sync.Mutex
	logFile   *os.File
)

// logTestWriter is used by tests to capture output when the output name is
// logTestWriterName.
var (
	logTestWriter     io.Writer
	logTestWriterName = "test"
)

func init() {
	if err := Init(LevelError, "stderr"); err != nil {
		panic(err)
	}
}

// Init configures the global logger. Output may be "stdout", "stderr" or a
// file path, which is appended to. A file opened by a previous call is
// closed.
func Init(level, output string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	var (
		out  io.Writer
		file *os.File
	)
	switch output {
	case "stdout":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	case "stderr", "":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("cannot open log output: %w", err)
		}
		out, file = f, f
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	logFileMu.Lock()
	defer logFileMu.Unlock()
	logger.Store(&l)
	prev := logFile
	logFile = file
	if prev != nil {
		if err := prev.Close(); err != nil {
			return fmt.Errorf("cannot close previous log output: %w", err)
		}
	}
	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case LevelDebug:
		return zerolog.DebugLevel, nil
	case LevelInfo:
		return zerolog.InfoLevel, nil
	case LevelWarn:
		return zerolog.WarnLevel, nil
	case LevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", level)
	}
}

// Logger returns the global zerolog logger.
func Logger() *zerolog.Logger {
	return logger.Load()
}

// Level returns the configured level as a string.
func Level() string {
	return Logger().GetLevel().String()
}

func Debug(args ...any) {
	Logger().Debug().Msg(fmt.Sprint(args...))
}

func Info(args ...any) {
	Logger().Info().Msg(fmt.Sprint(args...))
}

func Warn(args ...any) {
	Logger().Warn().Msg(fmt.Sprint(args...))
}

func Error(args ...any) {
	Logger().Error().Msg(fmt.Sprint(args...))
}

func Debugf(template string, args ...any) {
	Logger().Debug().Msgf(template, args...)
}

func Infof(template string, args ...any) {
	Logger().Info().Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	Logger().Warn().Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	Logger().Error().Msgf(template, args...)
}

// Debugw logs msg with the alternating keys and values in keyvalues.
func Debugw(msg string, keyvalues ...any) {
	Logger().Debug().Fields(keyvalues).Msg(msg)
}

func Infow(msg string, keyvalues ...any) {
	Logger().Info().Fields(keyvalues).Msg(msg)
}

func Warnw(msg string, keyvalues ...any) {
	Logger().Warn().Fields(keyvalues).Msg(msg)
}

func Errorw(err error, msg string) {
	Logger().Error().Err(err).Msg(msg)
}
