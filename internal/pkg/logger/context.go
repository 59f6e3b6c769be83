package logger

import "context"

type ctxKey struct{}

// IntoContext anexa um logger (normalmente já com request_id) ao contexto.
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext devolve o logger da requisição ou fallback quando não houver.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	return fallback
}
