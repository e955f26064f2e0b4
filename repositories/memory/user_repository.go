// Package memory provides process local repositories for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/terrace/models"
	"github.com/upb/terrace/repositories"
	"go.uber.org/zap"
)

// UserRepository keeps users in memory, indexed by ID and normalized email.
// It ignores transactions.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
	logger  *zap.Logger
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository(logger *zap.Logger) *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
		logger:  logger,
	}
}

// Create stores a copy of the user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	email := models.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return fmt.Errorf("%w: %s", repositories.ErrDuplicateEmail, user.Email)
	}
	if _, exists := r.byID[user.ID]; exists {
		return fmt.Errorf("user id %s already exists", user.ID)
	}

	stored := *user
	stored.Email = email
	r.byID[stored.ID] = &stored
	r.byEmail[email] = stored.ID

	r.logger.Debug("user created", zap.String("id", stored.ID.String()), zap.String("email", email))
	return nil
}

// GetByID returns a copy of the user with the given ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUserNotFound, id)
	}
	found := *user
	return &found, nil
}

// GetByEmail returns a copy of the user with the given email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	found := *r.byID[id]
	return &found, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", repositories.ErrUserNotFound, id)
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()

	r.logger.Info("user role updated", zap.String("id", id.String()), zap.String("role", string(role)))
	return nil
}

// WithTx returns the repository itself
func (r *UserRepository) WithTx(repositories.Transaction) repositories.UserRepository {
	return r
}

// HealthCheck always succeeds
func (r *UserRepository) HealthCheck(context.Context) error {
	return nil
}

// Len returns the number of stored users
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
