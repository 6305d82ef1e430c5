package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/aegis-backtest/pkg/config"
)

// Logger wraps zerolog behind a small structured-logging surface.
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New builds the process logger from config. LOG_FORMAT=console (or
// pretty) selects human-readable output; anything else emits JSON.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	var out io.Writer = os.Stdout
	switch cfg.LogFormat {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	zl := zerolog.New(out).With().Timestamp().Str("env", cfg.Env).Logger()
	return &Logger{zlog: zl}
}

// NewNop returns a logger that discards everything.
// 엔진 단위 테스트에서 사용
func NewNop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

func parseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{}) { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }

// WithField returns a child logger carrying one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a child logger carrying an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// Zerolog exposes the underlying zerolog.Logger for packages that need
// event-level control.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
