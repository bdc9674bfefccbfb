package mylog

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

var New func(name string) Logger

// Logger logs a line on behalf of one aggregate, such as a checkout session or an order.
type Logger interface {
	Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any)
}

// ParseSeverity accepts the names used in LOG_LEVEL. Unknown names mean debug.
func ParseSeverity(name string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(name))) {
	case SeverityInfo:
		return SeverityInfo
	case SeverityWarn, "WARNING":
		return SeverityWarn
	case SeverityError:
		return SeverityError
	default:
		return SeverityDebug
	}
}

func (s Severity) zapLevel() zapcore.Level {
	switch s {
	case SeverityInfo:
		return zapcore.InfoLevel
	case SeverityWarn:
		return zapcore.WarnLevel
	case SeverityError:
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

func levelFromEnv() zapcore.Level {
	return ParseSeverity(os.Getenv("LOG_LEVEL")).zapLevel()
}
