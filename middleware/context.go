package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/tokens"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// ClaimsKey is the context key for the verified token claims
	ClaimsKey contextKey = "claims"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the one assigned by chi's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetPrincipalFromContext retrieves the authenticated principal, or nil when
// the request is unauthenticated.
func GetPrincipalFromContext(ctx context.Context) *auth.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}

// WithPrincipal attaches an authenticated principal to the context
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetClaimsFromContext retrieves the verified token claims from context
func GetClaimsFromContext(ctx context.Context) *tokens.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*tokens.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds verified token claims to the context
func WithClaims(ctx context.Context, claims *tokens.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
