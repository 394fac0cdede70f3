package auth

import "context"

type ctxKey string

const callerKey ctxKey = "ngotes.caller"

// WithCaller stores the authenticated caller identity in context.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromCtx fetches the caller identity from context.
func CallerFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callerKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
