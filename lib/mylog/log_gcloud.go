package mylog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MarcGrol/menucheckout/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudLogger
	}
}

type structuredLogger struct {
	componentName string
	logger        *zap.Logger
}

func newGcloudLogger(componentName string) Logger {
	logger, err := cloudLoggingConfig().Build()
	if err != nil {
		// fall back to something that always works
		return newStandardLogger(componentName)
	}
	return structuredLogger{
		componentName: componentName,
		logger:        logger,
	}
}

// Field names follow what Cloud Logging parses from a json log line.
func cloudLoggingConfig() zap.Config {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
	}

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(levelFromEnv()),
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}
}

func (l structuredLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	fields := []zap.Field{
		zap.String("component", l.componentName),
		zap.Any("logging.googleapis.com/labels", map[string]string{"aggregate": traceLabel}),
	}
	trace := mycontext.TraceFromContext(ctx)
	if trace != "" {
		fields = append(fields, zap.String("logging.googleapis.com/trace", trace))
	}

	msg := l.componentName + ":" + fmt.Sprintf(format, a...)

	switch severity {
	case SeverityDebug:
		l.logger.Debug(msg, fields...)
	case SeverityWarn:
		l.logger.Warn(msg, fields...)
	case SeverityError:
		l.logger.Error(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}
}
