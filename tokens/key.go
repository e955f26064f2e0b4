package tokens

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
)

// minKeyBytes is the smallest HMAC key accepted for HS256.
const minKeyBytes = 32

// signingKey lazily decodes the configured secret exactly once. Concurrent
// first callers block until the single decode finishes and then observe the
// same key or the same error.
type signingKey struct {
	resolve func() ([]byte, error)
}

func newSigningKey(secret string) *signingKey {
	return &signingKey{
		resolve: sync.OnceValues(func() ([]byte, error) {
			return decodeSecret(secret)
		}),
	}
}

func (k *signingKey) get() ([]byte, error) {
	return k.resolve()
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is empty", ErrInvalidKey)
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		// Accept unpadded secrets as well.
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(secret, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: secret is not base64: %v", ErrInvalidKey, err)
		}
		key = raw
	}

	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("%w: decoded secret is %d bytes, need at least %d", ErrInvalidKey, len(key), minKeyBytes)
	}
	return key, nil
}
