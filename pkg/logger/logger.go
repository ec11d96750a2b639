package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

type Logger struct {
	logger *zap.Logger
}

var _ Interface = (*Logger)(nil)

func New(level string) *Logger {
	var l zapcore.Level

	switch strings.ToLower(level) {
	case "error":
		l = zapcore.ErrorLevel
	case "warn":
		l = zapcore.WarnLevel
	case "info":
		l = zapcore.InfoLevel
	case "debug":
		l = zapcore.DebugLevel
	default:
		l = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(l),
	)

	// пропускаем write и публичный метод, чтобы caller указывал на вызывающий код
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))

	return &Logger{logger: z}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.write(zapcore.DebugLevel, message, args...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.write(zapcore.InfoLevel, message, args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.write(zapcore.WarnLevel, message, args...)
}

func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.write(zapcore.ErrorLevel, message, args...)
}

// Fatal logs and terminates the process.
func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.write(zapcore.FatalLevel, message, args...)

	os.Exit(1)
}

func (l *Logger) write(level zapcore.Level, message interface{}, args ...interface{}) {
	switch msg := message.(type) {
	case error:
		// Error(err, "Component - Method - callee")
		if len(args) > 0 {
			if where, ok := args[0].(string); ok {
				l.logger.Log(level, where, zap.Error(msg))

				return
			}
		}
		l.logger.Log(level, msg.Error())
	case string:
		if len(args) == 0 {
			l.logger.Log(level, msg)

			return
		}
		l.logger.Log(level, fmt.Sprintf(msg, args...))
	default:
		l.logger.Log(level, fmt.Sprintf("%s message %v has unknown type %T", level, message, message))
	}
}
