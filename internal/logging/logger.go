package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  *zap.Logger
	logPath string
)

// LogLevelEnvVar overrides the log level chosen by flags.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "EX_INSTALLER_LOG_LEVEL"

// Initialize creates the application logger writing to a timestamped file
// in logDir. With debug set (or the environment variable saying so) the
// level drops to debug, otherwise warnings and above are recorded. The
// wizard redraws the whole terminal, so nothing is logged to stdout.
func Initialize(logDir string, debug bool) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("could not create log directory %s: %w", logDir, err)
	}

	name := time.Now().Format("ex-installer-20060102-150405.log")
	logPath = filepath.Join(logDir, name)

	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	switch os.Getenv(LogLevelEnvVar) {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Not initialized: stay silent rather than spraying the TUI
		logger = zap.NewNop()
	}
	return logger
}

// LogPath returns the path of the current log file, or "" when logging
// was never initialized. Error panels surface this so the user can
// inspect the full log.
func LogPath() string {
	return logPath
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
