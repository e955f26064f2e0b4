package services

import (
	"context"
	"time"

	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/internal/observability"
	"github.com/upb/terrace/models"
	"github.com/upb/terrace/tokens"
	"go.uber.org/zap"
)

// Login attempt results recorded in metrics
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginFailed             = "failed"
)

// dummySecret is hashed once and compared against when the subject does not
// exist, so unknown and known subjects cost the same.
const dummySecret = "terrace-unknown-subject"

// TokenCodec issues, verifies and refreshes signed tokens
type TokenCodec interface {
	Issue(p auth.Principal) (string, error)
	Verify(token string) (*tokens.Claims, error)
	Refresh(token string) (string, error)
	Subject(token string) (string, error)
}

// secretHasher is implemented by verifiers that can produce hashes
type secretHasher interface {
	Hash(plainSecret string) (string, error)
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResult is returned by a successful login or refresh
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// AuthService verifies credentials and issues tokens
type AuthService struct {
	users     UserDirectory
	codec     TokenCodec
	verifier  auth.SecretVerifier
	dummyHash string
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserDirectory,
	codec TokenCodec,
	verifier auth.SecretVerifier,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthService {
	s := &AuthService{
		users:     users,
		codec:     codec,
		verifier:  verifier,
		metrics:   metrics,
		logger:    logger,
	}
	// Hashed up front so unknown emails cost one compare, like wrong passwords.
	if h, ok := verifier.(secretHasher); ok {
		hash, err := h.Hash(dummySecret)
		if err != nil {
			logger.Error("failed to hash dummy secret", zap.Error(err))
		}
		s.dummyHash = hash
	}
	return s
}

// Login checks the email and password and issues a token. Unknown emails and
// wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.FindUser(ctx, email)
	if err != nil {
		if auth.IsNotFound(err) {
			s.verifier.Matches(password, s.dummyHash)
			return nil, s.invalidCredentials()
		}
		s.metrics.LoginAttempted(LoginFailed)
		s.logger.Error("login failed: identity lookup", zap.Error(err))
		return nil, ErrLoginFailed.Wrap(err)
	}

	identity := identityFromUser(user)
	if !s.verifier.Matches(password, identity.SecretHash) {
		return nil, s.invalidCredentials()
	}

	result, err := s.issue(identity.Principal, user)
	if err != nil {
		s.metrics.LoginAttempted(LoginFailed)
		s.logger.Error("login failed: token issue", zap.Error(err))
		return nil, ErrLoginFailed.Wrap(err)
	}

	s.metrics.LoginAttempted(LoginSuccess)
	s.logger.Info("login succeeded", zap.String("user_id", user.ID.String()))
	return result, nil
}

// Refresh re-issues a token that is correctly signed, even if expired, as
// long as its subject still exists.
func (s *AuthService) Refresh(ctx context.Context, token string) (*LoginResult, error) {
	refreshed, err := s.codec.Refresh(token)
	if err != nil {
		s.logger.Warn("token refresh rejected", zap.String("outcome", string(tokens.OutcomeOf(err))))
		return nil, ErrInvalidToken.Wrap(err)
	}

	claims, err := s.codec.Verify(refreshed)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	user, err := s.users.FindUser(ctx, claims.Subject)
	if err != nil {
		if auth.IsNotFound(err) {
			s.logger.Warn("token refresh for unknown subject")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("token refresh failed: identity lookup", zap.Error(err))
		return nil, ErrInternal.Wrap(err)
	}

	return &LoginResult{
		Token:     refreshed,
		ExpiresAt: claims.ExpiresAt,
		User:      userInfo(user),
	}, nil
}

// IsTokenValid reports whether token verifies
func (s *AuthService) IsTokenValid(token string) bool {
	return s.TokenOutcome(token) == tokens.OutcomeValid
}

// TokenOutcome classifies token without resolving its subject
func (s *AuthService) TokenOutcome(token string) tokens.Outcome {
	_, err := s.codec.Verify(token)
	return tokens.OutcomeOf(err)
}

// UserInfo returns the live user behind a valid token
func (s *AuthService) UserInfo(ctx context.Context, token string) (*UserInfo, error) {
	subject, err := s.codec.Subject(token)
	if err != nil {
		return nil, ErrInvalidToken.Wrap(err)
	}

	user, err := s.users.FindUser(ctx, subject)
	if err != nil {
		if auth.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, ErrInternal.Wrap(err)
	}

	info := userInfo(user)
	return &info, nil
}

func (s *AuthService) invalidCredentials() error {
	s.metrics.LoginAttempted(LoginInvalidCredentials)
	s.logger.Warn("login rejected: invalid credentials")
	return ErrInvalidCredentials
}

func (s *AuthService) issue(p auth.Principal, user *models.User) (*LoginResult, error) {
	token, err := s.codec.Issue(p)
	if err != nil {
		return nil, err
	}
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
		User:      userInfo(user),
	}, nil
}

func userInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:    user.ID.String(),
		Email: user.Email,
		Role:  string(user.Role),
	}
}
