package logging

import (
	"go.uber.org/zap"

	"github.com/arloliu/strand/types"
)

// ZapLogger adapts a zap logger to types.Logger using the sugared
// key/value API (Debugw, Infow, ...).
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// Compile-time assertion that ZapLogger implements types.Logger.
var _ types.Logger = (*ZapLogger)(nil)

// NewZap wraps a zap logger. A nil logger yields zap's no-op logger.
func NewZap(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}

	return &ZapLogger{sugar: l.Sugar()}
}

// Debug logs a message at debug level.
func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs a message at info level.
func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs a message at warn level.
func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs a message at error level.
func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}
