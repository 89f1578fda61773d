package router

import "context"

type contextKey struct{}

var matchKey contextKey

// WithMatch attaches the resolved match to a request context.
func WithMatch(ctx context.Context, m *Match) context.Context {
	return context.WithValue(ctx, matchKey, m)
}

// MatchFrom returns the match stored by the dispatcher, if any.
func MatchFrom(ctx context.Context) (*Match, bool) {
	m, ok := ctx.Value(matchKey).(*Match)
	return m, ok
}

// Param returns a named path parameter from the request context, or "".
func Param(ctx context.Context, name string) string {
	if m, ok := MatchFrom(ctx); ok {
		return m.Params[name]
	}
	return ""
}

// QueryParam returns a query-string parameter from the request context, or "".
func QueryParam(ctx context.Context, name string) string {
	if m, ok := MatchFrom(ctx); ok {
		return m.Query[name]
	}
	return ""
}
