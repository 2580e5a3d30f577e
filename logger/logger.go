package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "whatsapp-notifier"

var log = zap.NewNop()

// Options controls where and how much the logger writes
type Options struct {
	Dir     string
	Level   string
	Console bool
}

// Init builds the process logger: every entry goes to app.log, errors also go to
// error.log, and Console mirrors everything to stdout with colors.
func Init(opts Options) error {
	if err := os.MkdirAll(opts.Dir, 0750); err != nil {
		return err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return err
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotating(filepath.Join(opts.Dir, "app.log"))),
			level,
		),
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotating(filepath.Join(opts.Dir, "error.log"))),
			zap.NewAtomicLevelAt(zap.ErrorLevel),
		),
	}

	if opts.Console {
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stdout), level))
	}

	Set(zap.New(zapcore.NewTee(cores...)).With(zap.String("service", serviceName)))
	return nil
}

// Bootstrap installs an info-level console logger writing to w. It covers the
// messages emitted while configuration is loaded, before Init knows the log
// directory and level.
func Bootstrap(w zapcore.WriteSyncer) {
	Set(zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(w), zap.InfoLevel)).
		With(zap.String("service", serviceName)))
}

func consoleEncoder() zapcore.Encoder {
	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	return zapcore.NewConsoleEncoder(consoleConfig)
}

func rotating(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// Set replaces the process logger. Tests use it to capture output.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
	zap.ReplaceGlobals(l)
}

// L returns the process logger for components that take an injected *zap.Logger.
func L() *zap.Logger {
	return log
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return log.Sync()
}
