package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/models"
	"github.com/upb/terrace/repositories"
	"go.uber.org/zap"
)

// UserDirectory resolves subjects to stored users. Errors follow the
// auth.IdentityLookup contract.
type UserDirectory interface {
	auth.IdentityLookup
	FindUser(ctx context.Context, subject string) (*models.User, error)
}

// IdentityService adapts a UserRepository to auth.IdentityLookup.
// Subjects are user emails.
type IdentityService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(users repositories.UserRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		users:  users,
		logger: logger,
	}
}

// FindIdentity returns the current identity for subject
func (s *IdentityService) FindIdentity(ctx context.Context, subject string) (*auth.Identity, error) {
	user, err := s.FindUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	return identityFromUser(user), nil
}

// FindUser returns the stored user for subject. The error wraps
// auth.ErrIdentityNotFound or auth.ErrIdentityUnavailable.
func (s *IdentityService) FindUser(ctx context.Context, subject string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrIdentityUnavailable, err)
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", auth.ErrIdentityNotFound, subject)
		}
		s.logger.Debug("identity lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", auth.ErrIdentityUnavailable, err)
	}
	return user, nil
}

func identityFromUser(user *models.User) *auth.Identity {
	return &auth.Identity{
		Principal:  auth.NewPrincipal(user.Email, user.Roles()...),
		SecretHash: user.PasswordHash,
	}
}
