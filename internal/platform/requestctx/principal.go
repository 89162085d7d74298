// Package requestctx carries caller identity and request correlation through
// request contexts.
package requestctx

import (
	"context"
	"strings"
)

type principalContextKey struct{}

// WithPrincipal stores the caller principal in context.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, strings.TrimSpace(principal))
}

// PrincipalFromContext returns the caller principal stored in context.
func PrincipalFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(principalContextKey{}).(string)
	return value
}
