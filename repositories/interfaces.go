package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/terrace/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when creating a user whose email exists
	ErrDuplicateEmail = errors.New("email already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction is an open unit of work. Rollback after Commit is a no-op.
type Transaction interface {
	Commit() error
	Rollback() error
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
}
