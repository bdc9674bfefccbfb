package mylog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	logger        *zap.SugaredLogger
}

func newStandardLogger(componentName string) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
	cfg.DisableCaller = true
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return standardLogger{
		componentName: componentName,
		logger:        logger.Sugar().Named(componentName),
	}
}

func (l standardLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
	msg := fmt.Sprintf("%s - %s", traceLabel, fmt.Sprintf(format, a...))

	switch severity {
	case SeverityDebug:
		l.logger.Debug(msg)
	case SeverityWarn:
		l.logger.Warn(msg)
	case SeverityError:
		l.logger.Error(msg)
	default:
		l.logger.Info(msg)
	}
}
