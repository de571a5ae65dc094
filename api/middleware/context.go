package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, or the zero value
// when the request never passed through Auth.
func PrincipalFromContext(ctx context.Context) pkgAuth.Principal {
	if ctx == nil {
		return pkgAuth.Principal{}
	}
	if v, ok := ctx.Value(ctxPrincipal).(pkgAuth.Principal); ok {
		return v
	}
	return pkgAuth.Principal{}
}

// WithPrincipal injects the principal into the context for downstream handlers.
func WithPrincipal(ctx context.Context, principal pkgAuth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}
