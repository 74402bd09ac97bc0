package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context keys for request-scoped fields
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	ProductIDKey contextKey = "product_id"
	RuleIDKey    contextKey = "rule_id"
)

var (
	// globalLogger is the default logger instance
	globalLogger *zap.Logger
)

// Logger wraps zap logger
type Logger struct {
	*zap.Logger
}

// Init initializes the global logger with the specified level
func Init(level string) error {
	logger, err := NewProduction(level)
	if err != nil {
		return err
	}
	globalLogger = logger.Logger
	return nil
}

// NewProduction creates a production logger with the specified level
func NewProduction(level string) (*Logger, error) {
	config := zap.NewProductionConfig()

	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		logLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(logLevel)

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	config.Encoding = "json"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: logger}, nil
}

// NewNop creates a no-op logger
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// L returns a logger with request-scoped fields from context
func L(ctx context.Context) *zap.Logger {
	if globalLogger == nil {
		// Fallback to a basic production logger if not initialized
		logger, _ := zap.NewProduction()
		globalLogger = logger
	}

	logger := globalLogger

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}

	if productID, ok := ctx.Value(ProductIDKey).(string); ok && productID != "" {
		logger = logger.With(zap.String("product_id", productID))
	}

	if ruleID, ok := ctx.Value(RuleIDKey).(string); ok && ruleID != "" {
		logger = logger.With(zap.String("rule_id", ruleID))
	}

	return logger
}

// WithRequestID adds request_id to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithProductID adds product_id to the context for logging
func WithProductID(ctx context.Context, productID string) context.Context {
	return context.WithValue(ctx, ProductIDKey, productID)
}

// WithRuleID adds rule_id to the context for logging
func WithRuleID(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, RuleIDKey, ruleID)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// Info logs an info message with context
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	L(ctx).Info(msg, fields...)
}

// Error logs an error message with context
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	L(ctx).Error(msg, fields...)
}

// Warn logs a warning message with context
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	L(ctx).Warn(msg, fields...)
}

// Debug logs a debug message with context
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	L(ctx).Debug(msg, fields...)
}
