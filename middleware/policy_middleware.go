package middleware

import (
	"net/http"

	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/internal/observability"
	"github.com/upb/terrace/internal/policy"
	"github.com/upb/terrace/utils"
	"go.uber.org/zap"
)

// AccessEvaluator decides whether a path may be served to a principal
type AccessEvaluator interface {
	Evaluate(path string, principal *auth.Principal) policy.Decision
}

// AccessMiddleware enforces the access policy before any handler runs
type AccessMiddleware struct {
	policy  AccessEvaluator
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAccessMiddleware creates a new AccessMiddleware
func NewAccessMiddleware(p AccessEvaluator, metrics *observability.Metrics, logger *zap.Logger) *AccessMiddleware {
	return &AccessMiddleware{
		policy:  p,
		metrics: metrics,
		logger:  logger,
	}
}

// Enforce rejects requests the policy does not allow with 401 or 403.
// It must run after Authenticate.
func (m *AccessMiddleware) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal := GetPrincipalFromContext(ctx)

		decision := m.policy.Evaluate(r.URL.Path, principal)
		m.metrics.AccessDecided(string(decision.Outcome))

		if decision.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("decision", string(decision.Outcome)),
		}
		if decision.Rule != nil {
			fields = append(fields,
				zap.String("rule", decision.Rule.Pattern),
				zap.Stringer("requirement", decision.Rule.Requirement))
		}
		if principal != nil {
			fields = append(fields, zap.String("subject", principal.Subject))
		}

		if decision.Outcome == policy.Forbidden {
			m.logger.Warn("access forbidden", fields...)
			_ = utils.WriteForbidden(w, "Insufficient permissions")
			return
		}

		m.logger.Info("authentication required", fields...)
		_ = utils.WriteUnauthorized(w, "Authentication required")
	})
}
