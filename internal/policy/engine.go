package policy

import (
	"fmt"

	"github.com/upb/terrace/internal/auth"
)

// Fallback is the requirement applied when no rule matches.
var Fallback = Authenticated

// Policy is an immutable ordered rule set.
type Policy struct {
	rules    []Rule
	matchers []pattern
}

// New validates and freezes rules. Their order is the evaluation order.
func New(rules ...Rule) (*Policy, error) {
	p := &Policy{
		rules:    make([]Rule, 0, len(rules)),
		matchers: make([]pattern, 0, len(rules)),
	}
	for i, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		compiled, err := compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if err := r.Requirement.validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Pattern, err)
		}
		p.rules = append(p.rules, r)
		p.matchers = append(p.matchers, compiled)
	}
	return p, nil
}

// MustNew is like New but panics on an invalid rule set.
func MustNew(rules ...Rule) *Policy {
	p, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Evaluate decides the request for path. A nil principal means the request
// is unauthenticated.
func (p *Policy) Evaluate(requestPath string, principal *auth.Principal) Decision {
	segs := splitPath(requestPath)
	for i := range p.matchers {
		if p.matchers[i].match(segs) {
			rule := p.rules[i]
			return Decision{Outcome: rule.Requirement.check(principal), Rule: &rule}
		}
	}
	return Decision{Outcome: Fallback.check(principal)}
}

// Rules returns a copy of the rule set.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// DefaultRules is the gateway's built-in rule set.
func DefaultRules() []Rule {
	var rules []Rule
	rules = append(rules, Permit(
		"/api/auth/**",
		"/login",
		"/register",
		"/",
		"/home",
		"/css/**",
		"/js/**",
		"/images/**",
		"/webjars/**",
		"/favicon.ico",
		"/error",
		"/healthz",
		"/readyz",
	)...)
	rules = append(rules, Restrict(auth.RoleAdmin, "/api/admin/**", "/admin/**")...)
	rules = append(rules, Authenticate("/dashboard/**")...)
	return rules
}
