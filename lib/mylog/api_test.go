package mylog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseSeverity(t *testing.T) {
	testCases := []struct {
		in       string
		severity Severity
		level    zapcore.Level
	}{
		{in: "", severity: SeverityDebug, level: zapcore.DebugLevel},
		{in: "info", severity: SeverityInfo, level: zapcore.InfoLevel},
		{in: " Warning ", severity: SeverityWarn, level: zapcore.WarnLevel},
		{in: "ERROR", severity: SeverityError, level: zapcore.ErrorLevel},
		{in: "verbose", severity: SeverityDebug, level: zapcore.DebugLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.severity, ParseSeverity(tc.in))
			assert.Equal(t, tc.level, ParseSeverity(tc.in).zapLevel())
		})
	}
}
