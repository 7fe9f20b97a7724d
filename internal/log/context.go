package log

import (
	"context"
)

// ContextWithCorrelationID stores id for GetOrGenerateCorrelationID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelatedIDKey, id)
}

// ContextWithLogger stores l for GetLoggerInstanceFromContext.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, LoggerKeyForContext, l)
}
