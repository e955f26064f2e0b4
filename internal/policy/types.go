package policy

import (
	"fmt"

	"github.com/upb/terrace/internal/auth"
)

// Access is the kind of requirement a rule places on a request.
type Access string

const (
	AccessPublic        Access = "public"
	AccessAuthenticated Access = "authenticated"
	AccessRole          Access = "role"
)

// Requirement is what a request must satisfy for a matching rule.
type Requirement struct {
	Access Access
	Role   string
}

var (
	// Public lets any request through.
	Public = Requirement{Access: AccessPublic}
	// Authenticated requires an attached principal.
	Authenticated = Requirement{Access: AccessAuthenticated}
)

// RequiresRole requires an attached principal holding role.
func RequiresRole(role string) Requirement {
	return Requirement{Access: AccessRole, Role: role}
}

func (r Requirement) String() string {
	if r.Access == AccessRole {
		return fmt.Sprintf("role(%s)", r.Role)
	}
	return string(r.Access)
}

func (r Requirement) validate() error {
	switch r.Access {
	case AccessPublic, AccessAuthenticated:
		return nil
	case AccessRole:
		if r.Role == "" {
			return fmt.Errorf("role requirement without a role")
		}
		return nil
	default:
		return fmt.Errorf("unknown access %q", r.Access)
	}
}

// check evaluates the requirement against a possibly nil principal.
func (r Requirement) check(p *auth.Principal) Outcome {
	switch r.Access {
	case AccessPublic:
		return Allow
	case AccessAuthenticated:
		if p == nil {
			return Unauthorized
		}
		return Allow
	default:
		if p == nil {
			return Unauthorized
		}
		if !p.HasRole(r.Role) {
			return Forbidden
		}
		return Allow
	}
}

// Rule maps a path pattern to a requirement.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Permit builds Public rules for each pattern.
func Permit(patterns ...string) []Rule {
	return rulesFor(Public, patterns)
}

// Authenticate builds Authenticated rules for each pattern.
func Authenticate(patterns ...string) []Rule {
	return rulesFor(Authenticated, patterns)
}

// Restrict builds RequiresRole rules for each pattern.
func Restrict(role string, patterns ...string) []Rule {
	return rulesFor(RequiresRole(role), patterns)
}

func rulesFor(req Requirement, patterns []string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: p, Requirement: req})
	}
	return rules
}

// Outcome is the result of evaluating a request.
type Outcome string

const (
	Allow        Outcome = "allow"
	Unauthorized Outcome = "unauthorized"
	Forbidden    Outcome = "forbidden"
)

// Decision is the outcome of Evaluate together with the rule that produced
// it. Rule is nil when no rule matched and the fallback applied.
type Decision struct {
	Outcome Outcome
	Rule    *Rule
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}
