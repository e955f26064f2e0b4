package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/terrace/internal/auth"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = 24 * time.Hour

var errUnsupportedAlgorithm = errors.New("unexpected signing method")

// Config holds configuration for Codec.
type Config struct {
	// Secret is the base64 encoded HMAC secret. It is decoded on first use.
	Secret string
	TTL    time.Duration
	// Issuer is written to the iss claim and enforced on Verify when set.
	Issuer string
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec issues and verifies HS256 signed tokens.
type Codec struct {
	key    *signingKey
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewCodec creates a new Codec. The signing key is not decoded until it is
// first needed; call SigningKey to force resolution at startup.
func NewCodec(cfg Config, opts ...Option) *Codec {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	c := &Codec{
		key:    newSigningKey(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the validity window of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// SigningKey resolves and returns the process signing key.
func (c *Codec) SigningKey() ([]byte, error) {
	return c.key.get()
}

// Issue mints a token for the principal valid from now for TTL.
func (c *Codec) Issue(p auth.Principal) (string, error) {
	return c.mint(p.Subject, p.Roles, c.now().Truncate(time.Second))
}

// Verify decodes the token, checks its signature and expiry and returns its
// claims. Errors wrap exactly one of ErrMalformed, ErrUnsupported,
// ErrSignatureInvalid or ErrExpired.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	wc, err := c.parse(tokenString, jwt.NewParser(opts...))
	if err != nil {
		return nil, err
	}
	return wc.toClaims(), nil
}

// Refresh re-mints a token with the same subject and roles and a fresh
// validity window. Expired tokens are accepted as long as they are well
// formed and correctly signed.
func (c *Codec) Refresh(tokenString string) (string, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithStrictDecoding())

	wc, err := c.parse(tokenString, parser)
	if err != nil {
		return "", err
	}
	if wc.ExpiresAt == nil {
		return "", fmt.Errorf("%w: token has no expiration", ErrMalformed)
	}
	if c.issuer != "" && wc.Issuer != c.issuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrMalformed, wc.Issuer)
	}

	// The new expiry must land strictly after the old one even when the
	// refresh happens within the same second as the original issue.
	issuedAt := c.now().Truncate(time.Second)
	if floor := wc.ExpiresAt.Time.Add(time.Second - c.ttl); issuedAt.Before(floor) {
		issuedAt = floor
	}
	return c.mint(wc.Subject, wc.Roles, issuedAt)
}

// Subject returns the subject of a valid token.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) mint(subject string, roles []string, issuedAt time.Time) (string, error) {
	key, err := c.key.get()
	if err != nil {
		return "", err
	}

	if roles == nil {
		roles = []string{}
	}
	claims := wireClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *Codec) parse(tokenString string, parser *jwt.Parser) (*wireClaims, error) {
	key, err := c.key.get()
	if err != nil {
		return nil, err
	}

	wc := &wireClaims{}
	token, err := parser.ParseWithClaims(tokenString, wc, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v", errUnsupportedAlgorithm, t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}
	return wc, nil
}
