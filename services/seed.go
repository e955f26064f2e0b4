package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upb/terrace/models"
	"github.com/upb/terrace/repositories"
	"go.uber.org/zap"
)

// SeedUser is a user to create at startup
type SeedUser struct {
	Email    string
	Password string
	Role     models.UserRole
}

// PasswordHasher produces stored password hashes
type PasswordHasher interface {
	Hash(plainSecret string) (string, error)
}

// ParseSeedUsers parses "email:password:ROLE" entries. The password may
// itself contain colons.
func ParseSeedUsers(entries []string) ([]SeedUser, error) {
	seeds := make([]SeedUser, 0, len(entries))
	for _, entry := range entries {
		first := strings.Index(entry, ":")
		last := strings.LastIndex(entry, ":")
		if first < 0 || first == last {
			return nil, fmt.Errorf("seed user %q: expected email:password:ROLE", redactSeed(entry))
		}

		email := models.NormalizeEmail(entry[:first])
		password := entry[first+1 : last]
		if email == "" || password == "" {
			return nil, fmt.Errorf("seed user %q: email and password are required", redactSeed(entry))
		}

		role, err := models.ParseUserRole(entry[last+1:])
		if err != nil {
			return nil, fmt.Errorf("seed user %q: %w", email, err)
		}

		seeds = append(seeds, SeedUser{Email: email, Password: password, Role: role})
	}
	return seeds, nil
}

// Seeder creates seed users that do not exist yet
type Seeder struct {
	users  repositories.UserRepository
	txMgr  repositories.TransactionManager
	hasher PasswordHasher
	logger *zap.Logger
}

// NewSeeder creates a new seeder. txMgr may be nil for stores without
// transactions.
func NewSeeder(users repositories.UserRepository, txMgr repositories.TransactionManager, hasher PasswordHasher, logger *zap.Logger) *Seeder {
	return &Seeder{
		users:  users,
		txMgr:  txMgr,
		hasher: hasher,
		logger: logger,
	}
}

// Seed creates the missing users and returns how many were created.
// Existing users are left untouched.
func (s *Seeder) Seed(ctx context.Context, seeds []SeedUser) (int, error) {
	if len(seeds) == 0 {
		return 0, nil
	}
	if s.txMgr == nil {
		return s.seed(ctx, s.users, seeds)
	}
	return WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (int, error) {
		return s.seed(ctx, s.users.WithTx(tx), seeds)
	})
}

func (s *Seeder) seed(ctx context.Context, users repositories.UserRepository, seeds []SeedUser) (int, error) {
	created := 0
	for _, seed := range seeds {
		_, err := users.GetByEmail(ctx, seed.Email)
		if err == nil {
			s.logger.Debug("seed user exists", zap.String("email", seed.Email))
			continue
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return created, fmt.Errorf("look up seed user %s: %w", seed.Email, err)
		}

		hash, err := s.hasher.Hash(seed.Password)
		if err != nil {
			return created, fmt.Errorf("hash seed user %s: %w", seed.Email, err)
		}
		if err := users.Create(ctx, models.NewUser(seed.Email, hash, seed.Role)); err != nil {
			return created, fmt.Errorf("create seed user %s: %w", seed.Email, err)
		}

		created++
		s.logger.Info("seed user created", zap.String("email", seed.Email), zap.String("role", string(seed.Role)))
	}
	return created, nil
}

// redactSeed keeps only the part before the first colon
func redactSeed(entry string) string {
	if i := strings.Index(entry, ":"); i >= 0 {
		return entry[:i] + ":***"
	}
	return entry
}
