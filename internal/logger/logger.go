package logger

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config selects the level, encoding and destination of log output.
type Config struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string

	// Format is "text" (console encoder) or "json"
	Format string

	// Output is "stdout", "stderr" or a file path
	Output string
}

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar       atomic.Pointer[zap.SugaredLogger]
)

func init() {
	sugar.Store(newLogger(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stdout)).Sugar())
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel converts a level name into a Level. Unknown names map to LevelInfo.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(level string) {
	atomicLevel.SetLevel(ParseLevel(level).zapLevel())
}

// Init replaces the process logger according to cfg.
//
// The level stays adjustable at runtime through SetLevel.
func Init(cfg Config) error {
	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %s: %w", cfg.Output, err)
		}
		sink = zapcore.Lock(f)
	}

	SetLevel(cfg.Level)
	previous := sugar.Swap(newLogger(encoder, sink).Sugar())
	if previous != nil {
		_ = previous.Sync()
	}
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = sugar.Load().Sync()
}

func newLogger(encoder zapcore.Encoder, sink zapcore.WriteSyncer) *zap.Logger {
	return zap.New(zapcore.NewCore(encoder, sink, atomicLevel))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func Debug(format string, v ...any) {
	sugar.Load().Debugf(format, v...)
}

func Info(format string, v ...any) {
	sugar.Load().Infof(format, v...)
}

func Warn(format string, v ...any) {
	sugar.Load().Warnf(format, v...)
}

func Error(format string, v ...any) {
	sugar.Load().Errorf(format, v...)
}

// With returns a structured child logger carrying the given key/value pairs.
func With(keysAndValues ...any) *zap.SugaredLogger {
	return sugar.Load().With(keysAndValues...)
}
