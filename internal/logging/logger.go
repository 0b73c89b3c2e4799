// Package logging wraps zap with a small key/value API.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger. The zero value and nil are not usable;
// use Nop for a silent logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a logger. Mode "prod" logs JSON at info level to stderr;
// anything else logs human-readable output at debug level. Level, if
// non-empty, overrides the mode's default.
func New(mode, level string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.OutputPaths = []string{"stderr"}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// FromZap adapts an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar()}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func (l *Logger) Sync() { _ = l.sugar.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, redact(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, redact(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, redact(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, redact(kv)...) }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(redact(kv)...)}
}

// redact masks credential-looking values.
func redact(kv []any) []any {
	if len(kv) < 2 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		k := strings.ToLower(key)
		if strings.Contains(k, "key") && strings.Contains(k, "api") ||
			strings.Contains(k, "token") && !strings.Contains(k, "tokens") ||
			strings.Contains(k, "secret") ||
			strings.Contains(k, "password") {
			out[i+1] = "[REDACTED]"
		}
	}
	return out
}
