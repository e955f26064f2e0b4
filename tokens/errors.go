package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the token is not a structurally valid JWS.
	ErrMalformed = errors.New("token malformed")

	// ErrUnsupported is returned when the token uses an algorithm or format
	// this codec does not accept.
	ErrUnsupported = errors.New("token unsupported")

	// ErrSignatureInvalid is returned when the signature does not match the
	// signing key.
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrExpired is returned when a correctly signed token is past its expiry.
	ErrExpired = errors.New("token expired")

	// ErrInvalidKey is returned when the configured secret cannot be turned
	// into a signing key.
	ErrInvalidKey = errors.New("invalid signing key")
)

// Outcome labels the result of a verification for logs and metrics.
type Outcome string

const (
	OutcomeValid            Outcome = "valid"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeUnsupported      Outcome = "unsupported"
	OutcomeSignatureInvalid Outcome = "signature_invalid"
	OutcomeExpired          Outcome = "expired"
)

// OutcomeOf classifies an error returned by Verify.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeValid
	case errors.Is(err, ErrExpired):
		return OutcomeExpired
	case errors.Is(err, ErrSignatureInvalid):
		return OutcomeSignatureInvalid
	case errors.Is(err, ErrUnsupported):
		return OutcomeUnsupported
	default:
		return OutcomeMalformed
	}
}

// classify maps a golang-jwt parse error onto the codec's closed set of
// verification errors. The original error is kept in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errUnsupportedAlgorithm):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		// Missing or mistyped claims, not-yet-valid tokens, wrong issuer.
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
