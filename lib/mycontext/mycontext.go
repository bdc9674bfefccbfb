package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// CtxTraceContext is the context key of the Cloud Logging trace name (used by mylog)
type CtxTraceContext struct{}

// ContextFromHTTPRequest keeps the request context, so a client disconnect reaches blocking calls,
// and adds the trace the load balancer assigned to the request.
func ContextFromHTTPRequest(r *http.Request) context.Context {
	trace := ""
	traceID := traceIDFromRequest(r)
	if traceID != "" {
		trace = fmt.Sprintf("projects/%s/traces/%s", os.Getenv("GOOGLE_CLOUD_PROJECT"), traceID)
	}

	return context.WithValue(r.Context(), CtxTraceContext{}, trace)
}

// traceIDFromRequest reads "TRACE_ID/SPAN_ID;o=1" or else a W3C "00-TRACE_ID-SPAN_ID-01".
func traceIDFromRequest(r *http.Request) string {
	cloudTrace := r.Header.Get("X-Cloud-Trace-Context")
	if cloudTrace != "" {
		traceID, _, _ := strings.Cut(cloudTrace, "/")
		return traceID
	}

	parts := strings.Split(r.Header.Get("traceparent"), "-")
	if len(parts) == 4 && len(parts[1]) == 32 {
		return parts[1]
	}

	return ""
}

func TraceFromContext(c context.Context) string {
	trace, ok := c.Value(CtxTraceContext{}).(string)
	if !ok {
		return ""
	}
	return trace
}
