package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/terrace/config"
	"github.com/upb/terrace/handlers"
	"github.com/upb/terrace/internal/auth"
	"github.com/upb/terrace/internal/observability"
	"github.com/upb/terrace/internal/policy"
	"github.com/upb/terrace/middleware"
	"github.com/upb/terrace/repositories"
	"github.com/upb/terrace/repositories/memory"
	"github.com/upb/terrace/repositories/postgres"
	"github.com/upb/terrace/services"
	"github.com/upb/terrace/tokens"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// RepoFactory is nil when the memory store is used
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager
	Store     repositories.HealthChecker

	// Auth core
	Codec       *tokens.Codec
	Policy      *policy.Policy
	Identities  *services.IdentityService
	AuthService *services.AuthService

	// HTTP
	AuthMiddleware   *middleware.AuthMiddleware
	AccessMiddleware *middleware.AccessMiddleware
	AuthHandler      *handlers.AuthHandler
	HealthHandler    *handlers.HealthHandler
	DashboardHandler *handlers.DashboardHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := deps.seedUsers(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	if err := deps.initHTTP(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize http layer: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("user_store", cfg.UserStore.Backend),
		zap.Bool("metrics", deps.Metrics != nil))
	return deps, nil
}

// initStore opens the configured user store
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.UserStore.Backend {
	case config.UserStoreMemory:
		users := memory.NewUserRepository(d.Logger)
		d.Users = users
		d.Store = users
		d.Logger.Warn("using in-memory user store, users are lost on restart")
		return nil

	case config.UserStorePostgres:
		factory, err := postgres.NewRepositoryFactory(ctx, cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory

		if err := factory.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		d.Users = factory.NewRepositories().Users
		d.TxManager = factory.GetTransactionManager()
		d.Store = factory.GetDB()
		return nil

	default:
		return fmt.Errorf("unknown user store %q", cfg.UserStore.Backend)
	}
}

// initAuth builds the token codec, identity lookup and access policy. The
// signing key is resolved here so a bad secret fails startup.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	d.Codec = tokens.NewCodec(tokens.Config{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	})
	if _, err := d.Codec.SigningKey(); err != nil {
		return err
	}

	p, err := policy.New(policy.DefaultRules()...)
	if err != nil {
		return fmt.Errorf("invalid access policy: %w", err)
	}
	d.Policy = p

	d.Identities = services.NewIdentityService(d.Users, d.Logger)
	d.AuthService = services.NewAuthService(
		d.Identities,
		d.Codec,
		auth.NewBcryptVerifier(cfg.Auth.BcryptCost),
		d.Metrics,
		d.Logger,
	)
	return nil
}

func (d *Dependencies) seedUsers(ctx context.Context, cfg *config.Config) error {
	if len(cfg.UserStore.SeedUsers) == 0 {
		return nil
	}

	seeds, err := services.ParseSeedUsers(cfg.UserStore.SeedUsers)
	if err != nil {
		return err
	}

	seeder := services.NewSeeder(d.Users, d.TxManager, auth.NewBcryptVerifier(cfg.Auth.BcryptCost), d.Logger)
	created, err := seeder.Seed(ctx, seeds)
	if err != nil {
		return err
	}

	d.Logger.Info("seed users applied", zap.Int("created", created), zap.Int("configured", len(seeds)))
	return nil
}

func (d *Dependencies) initHTTP(cfg *config.Config) error {
	public, err := policy.NewMatcher(cfg.Auth.PublicPaths...)
	if err != nil {
		return fmt.Errorf("invalid public paths: %w", err)
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(
		d.Codec,
		d.Identities,
		middleware.AuthConfig{CookieName: cfg.JWT.CookieName, PublicPaths: public},
		d.Metrics,
		d.Logger,
	)
	d.AccessMiddleware = middleware.NewAccessMiddleware(d.Policy, d.Metrics, d.Logger)

	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, handlers.CookieConfig{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.JWT.CookieSecure,
		MaxAge: d.Codec.TTL(),
	}, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Store, d.Logger)
	d.DashboardHandler = handlers.NewDashboardHandler()
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return errors.Join(errs...)
}
