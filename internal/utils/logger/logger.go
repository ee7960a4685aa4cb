// internal/utils/logger/logger.go
package logger

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// Logger extends zap.Logger with payment-aware helpers.
type Logger struct {
	*zap.Logger
	config *Config
	closer func() error
}

// New builds a logger writing human-readable lines to stderr and JSON lines to a rotated file.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	logRotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	fileLevel := zapcore.InfoLevel
	consoleLevel := cfg.ConsoleLevel
	if cfg.Development {
		fileLevel = zapcore.DebugLevel
		consoleLevel = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), consoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logRotator), fileLevel),
	)

	return &Logger{
		Logger: zap.New(core,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
		closer: logRotator.Close,
	}, nil
}

// Wrap adapts an existing zap logger, for tests and embedding.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{Logger: l, config: DefaultConfig()}
}

// WithPayment adds the shape of a payment request to the log context.
func (l *Logger) WithPayment(amount float64, recipients []types.Recipient) *zap.Logger {
	return l.With(
		zap.Float64("amount_sol", amount),
		zap.Int("recipient_count", len(recipients)),
	)
}

// WithTransaction adds a transaction signature to the log context.
func (l *Logger) WithTransaction(signature string) *zap.Logger {
	return l.With(
		zap.String("signature", signature),
		zap.Time("tx_time", time.Now().UTC()),
	)
}

// WithOperation tags log lines of one operation with a correlation id.
func (l *Logger) WithOperation(operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	)
}

// Sync flushes buffered entries, ignoring the errors terminals return for stderr.
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// Close syncs and releases the log file.
func (l *Logger) Close() error {
	syncErr := l.Sync()
	if l.closer == nil {
		return syncErr
	}
	return errors.Join(syncErr, l.closer())
}

// TrackPerformance logs the duration of an operation when the returned func is called.
func (l *Logger) TrackPerformance(operation string) (end func()) {
	start := time.Now()
	opLogger := l.WithOperation(operation)

	opLogger.Debug("Starting operation")

	return func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}
