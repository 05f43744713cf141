package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// hKVLogger implements the ILogger interface on top of a named zap logger
type hKVLogger struct {
	level  zap.AtomicLevel
	logger *zap.SugaredLogger
}

func (l *hKVLogger) SetLevel(level logger.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

func (l *hKVLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *hKVLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *hKVLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *hKVLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *hKVLogger) Panicf(format string, args ...interface{}) {
	l.logger.Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// sink is shared by all loggers so concurrent writes to stdout do not interleave
var sink = zapcore.Lock(os.Stdout)

// CreateLogger creates a console logger named after pkgName (implements logger.Factory)
func CreateLogger(pkgName string) logger.ILogger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, level)

	return &hKVLogger{
		level:  level,
		logger: zap.New(core).Named(pkgName).Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// toZapLevel maps dragonboat levels onto zap levels
func toZapLevel(level logger.LogLevel) zapcore.Level {
	switch level {
	case logger.DEBUG:
		return zapcore.DebugLevel
	case logger.INFO:
		return zapcore.InfoLevel
	case logger.WARNING:
		return zapcore.WarnLevel
	case logger.ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.DPanicLevel
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// LoggerNames are the names of all package loggers of hKV
var LoggerNames = []string{"db", "store", "rpc", "rpc/client", "transport/rpc", "cli"}

// InitLoggers installs the zap backed logger factory and sets the level of all
// hKV loggers. An invalid level falls back to info.
func InitLoggers(level string) {
	logger.SetLoggerFactory(CreateLogger)

	parsed, err := ParseLogLevel(level)
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(parsed)
	}
	if err != nil {
		logger.GetLogger("rpc").Warningf("%v, using info", err)
	}
}

// --------------------------------------------------------------------------
// Pebble logger adapter
// --------------------------------------------------------------------------

// PebbleLogger adapts a dragonboat logger to the pebble.Logger interface
type PebbleLogger struct {
	Logger logger.ILogger
}

func (p PebbleLogger) Infof(format string, args ...interface{}) {
	p.Logger.Debugf(format, args...)
}

func (p PebbleLogger) Fatalf(format string, args ...interface{}) {
	p.Logger.Panicf(format, args...)
}
