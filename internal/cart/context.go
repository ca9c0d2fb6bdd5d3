package cart

import "context"

type ctxKey struct{}

// WithAPI stores the session's cart in ctx.
func WithAPI(ctx context.Context, api API) context.Context {
	return context.WithValue(ctx, ctxKey{}, api)
}

// FromContext returns the cart stored by WithAPI.
func FromContext(ctx context.Context) (API, bool) {
	api, ok := ctx.Value(ctxKey{}).(API)
	return api, ok && api != nil
}
