package middleware

import (
	"net/http"
	"strings"

	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/internal/observability"
	"github.com/upb/terrace/internal/policy"
	"github.com/upb/terrace/tokens"
	"github.com/upb/terrace/utils"
	"go.uber.org/zap"
)

// DefaultCookieName is the cookie carrying the token when none is configured.
const DefaultCookieName = "jwt-token"

// TokenErrorHeader is set on responses whose request carried a token that
// failed verification.
const TokenErrorHeader = "JWT-Error"

// TokenVerifier defines the interface for verifying tokens
type TokenVerifier interface {
	Verify(token string) (*tokens.Claims, error)
}

// AuthConfig configures AuthMiddleware.
type AuthConfig struct {
	// CookieName is checked before the Authorization header.
	CookieName string
	// PublicPaths are skipped entirely, so a garbled token never gets in
	// the way of obtaining a new one.
	PublicPaths *policy.Matcher
}

// AuthMiddleware resolves the principal for each request
type AuthMiddleware struct {
	verifier   TokenVerifier
	lookup     auth.IdentityLookup
	cookieName string
	public     *policy.Matcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(
	verifier TokenVerifier,
	lookup auth.IdentityLookup,
	cfg AuthConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthMiddleware {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &AuthMiddleware{
		verifier:   verifier,
		lookup:     lookup,
		cookieName: cfg.CookieName,
		public:     cfg.PublicPaths,
		metrics:    metrics,
		logger:     logger,
	}
}

// Authenticate attaches a principal to the request context when the request
// carries a valid token for a known identity. It never rejects a request;
// that is left to the access policy.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if m.public.Matches(r.URL.Path) || GetPrincipalFromContext(ctx) != nil {
			next.ServeHTTP(w, r)
			return
		}

		token := ExtractToken(r, m.cookieName)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		requestID := GetRequestIDFromContext(ctx)

		claims, err := m.verifier.Verify(token)
		outcome := tokens.OutcomeOf(err)
		m.metrics.TokenVerified(string(outcome))
		if err != nil {
			m.logger.Warn("token verification failed",
				zap.String("request_id", requestID),
				zap.String("outcome", string(outcome)),
				zap.Error(err))
			w.Header().Set(TokenErrorHeader, "Invalid token")
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.lookup.FindIdentity(ctx, claims.Subject)
		if err != nil {
			if auth.IsNotFound(err) {
				m.logger.Warn("token subject not found",
					zap.String("request_id", requestID),
					zap.String("subject", claims.Subject))
			} else {
				m.logger.Error("identity lookup failed",
					zap.String("request_id", requestID),
					zap.String("subject", claims.Subject),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		if identity == nil {
			m.logger.Error("identity lookup returned no identity",
				zap.String("request_id", requestID),
				zap.String("subject", claims.Subject))
			next.ServeHTTP(w, r)
			return
		}

		// Roles come from the stored identity; the token's roles may be stale.
		principal := auth.NewPrincipal(identity.Principal.Subject, identity.Principal.Roles...)
		ctx = WithPrincipal(ctx, &principal)
		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("subject", principal.Subject),
			zap.Strings("roles", principal.Roles))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth is a middleware that requires an authenticated principal
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipalFromContext(r.Context()) == nil {
			m.logger.Warn("authentication required",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole is a middleware that requires a specific role
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			principal := GetPrincipalFromContext(ctx)
			if principal == nil {
				m.logger.Warn("authentication required",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path))
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			if !principal.HasRole(role) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("required_role", role),
					zap.Strings("roles", principal.Roles))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken returns the token from the named cookie, or failing that from
// an "Authorization: Bearer" header. Empty values count as absent.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	return extractBearerToken(r)
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
