package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretVerifier compares a plain secret against a stored one-way hash.
type SecretVerifier interface {
	Matches(plainSecret, storedHash string) bool
}

// BcryptVerifier implements SecretVerifier with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a verifier that hashes new secrets at cost.
// An out-of-range cost falls back to bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Matches reports whether plainSecret hashes to storedHash.
func (v *BcryptVerifier) Matches(plainSecret, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plainSecret)) == nil
}

// Hash returns a salted bcrypt hash of plainSecret.
func (v *BcryptVerifier) Hash(plainSecret string) (string, error) {
	if plainSecret == "" {
		return "", errors.New("secret must not be empty")
	}
	if len(plainSecret) > 72 {
		return "", errors.New("secret exceeds the 72 byte bcrypt limit")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainSecret), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
