package mylog

import "context"

type nopLogger struct{}

// NewNop returns a logger that discards everything; handy in tests.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any) {
}
