package auth

import "slices"

// Principal is the authenticated identity attached to a single request.
// It is built from the live identity record, never from token claims.
type Principal struct {
	Subject string
	Roles   []string
}

// NewPrincipal returns a Principal that owns a private copy of roles.
func NewPrincipal(subject string, roles ...string) Principal {
	return Principal{
		Subject: subject,
		Roles:   slices.Clone(roles),
	}
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}
