package event

import "context"

// Context is re-exported for convenience in handler signatures.
// It avoids importing context in user packages when referencing event types.
type Context = context.Context

type originKey struct{}

// WithOrigin returns a context whose published events default their
// Metadata.Origin to name. The bus stamps handler contexts with the
// subscription owner so that nested publishes attribute correctly.
func WithOrigin(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, originKey{}, name)
}

// OriginFrom extracts the origin set by WithOrigin, or "" when unset.
func OriginFrom(ctx context.Context) string {
	if v, ok := ctx.Value(originKey{}).(string); ok {
		return v
	}
	return ""
}

type correlationKey struct{}

// WithCorrelation returns a context whose published events default their
// Metadata.CorrelationID to id. Handler contexts carry the triggering
// event's correlation so chains of events share one id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationFrom extracts the correlation id, or "" when unset.
func CorrelationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(correlationKey{}).(string); ok {
		return v
	}
	return ""
}
