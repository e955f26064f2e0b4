package auth

import (
	"context"
	"errors"
)

var (
	// ErrIdentityNotFound is returned when no identity exists for a subject.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityUnavailable is returned when the identity store could not
	// answer. It must never be treated as a successful lookup.
	ErrIdentityUnavailable = errors.New("identity store unavailable")
)

// Identity is a stored identity as seen by the authentication core.
type Identity struct {
	Principal  Principal
	SecretHash string
}

// IdentityLookup resolves a subject to its current identity.
//
// Implementations return an error wrapping ErrIdentityNotFound when the
// subject is unknown and an error wrapping ErrIdentityUnavailable for any
// other failure, including context cancellation.
type IdentityLookup interface {
	FindIdentity(ctx context.Context, subject string) (*Identity, error)
}

// IsNotFound reports whether err means the subject does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIdentityNotFound)
}
