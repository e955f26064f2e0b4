package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"JWT_SECRET": testSecret,
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
				assert.Equal(t, "jwt-token", cfg.JWT.CookieName)
				assert.False(t, cfg.JWT.CookieSecure)
				assert.Empty(t, cfg.JWT.Issuer)
				assert.Equal(t, []string{"/api/auth/**", "/public/**", "/login", "/register"}, cfg.Auth.PublicPaths)
				assert.Equal(t, UserStorePostgres, cfg.UserStore.Backend)
				assert.Empty(t, cfg.UserStore.SeedUsers)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
				assert.True(t, cfg.Observability.MetricsEnabled)
				assert.Equal(t, 9090, cfg.Observability.MetricsPort)
			},
		},
		{
			name: "jwt and auth overrides",
			envVars: map[string]string{
				"JWT_SECRET":        testSecret,
				"JWT_TTL":           "15m",
				"JWT_ISSUER":        "terrace",
				"JWT_COOKIE_NAME":   "session",
				"JWT_COOKIE_SECURE": "true",
				"AUTH_PUBLIC_PATHS": " /api/auth/** , ,/status ",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 15*time.Minute, cfg.JWT.TTL)
				assert.Equal(t, "terrace", cfg.JWT.Issuer)
				assert.Equal(t, "session", cfg.JWT.CookieName)
				assert.True(t, cfg.JWT.CookieSecure)
				assert.Equal(t, []string{"/api/auth/**", "/status"}, cfg.Auth.PublicPaths)
			},
		},
		{
			name: "memory store with seed users",
			envVars: map[string]string{
				"JWT_SECRET": testSecret,
				"USER_STORE": "Memory",
				"SEED_USERS": "alice@example.com:secret:USER,root@example.com:secret:ADMIN",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, UserStoreMemory, cfg.UserStore.Backend)
				assert.Len(t, cfg.UserStore.SeedUsers, 2)
			},
		},
		{
			name: "database url takes precedence",
			envVars: map[string]string{
				"JWT_SECRET":        testSecret,
				"DATABASE_URL":      "postgres://u:p@db.example.com:6543/users?sslmode=require",
				"DB_MAX_OPEN_CONNS": "50",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://u:p@db.example.com:6543/users?sslmode=require", cfg.Database.DSN())
				assert.Equal(t, "host=db.example.com port=6543 database=users", cfg.Database.LogString())
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"JWT_SECRET":  testSecret,
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name:    "missing secret",
			envVars: map[string]string{},
			wantErr: true,
		},
		{
			name: "non positive ttl",
			envVars: map[string]string{
				"JWT_SECRET": testSecret,
				"JWT_TTL":    "-1h",
			},
			wantErr: true,
		},
		{
			name: "unknown user store",
			envVars: map[string]string{
				"JWT_SECRET": testSecret,
				"USER_STORE": "ldap",
			},
			wantErr: true,
		},
		{
			name: "production requires secure cookie",
			envVars: map[string]string{
				"JWT_SECRET":  testSecret,
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "metrics port clash",
			envVars: map[string]string{
				"JWT_SECRET":   testSecret,
				"SERVER_PORT":  "9090",
				"METRICS_PORT": "9090",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Port: 8080},
		JWT:         JWTConfig{Secret: testSecret, TTL: time.Hour, CookieName: "jwt-token"},
		Auth:        AuthConfig{PublicPaths: []string{"/api/auth/**"}},
		UserStore:   UserStoreConfig{Backend: UserStorePostgres},
		Database: DatabaseConfig{
			Host:     "localhost",
			User:     "user",
			Database: "db",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			MetricsPort: 9090,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid development config", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = " " }, wantErr: true, errMsg: "JWT_SECRET is required"},
		{name: "zero ttl", mutate: func(c *Config) { c.JWT.TTL = 0 }, wantErr: true, errMsg: "JWT_TTL"},
		{name: "empty cookie name", mutate: func(c *Config) { c.JWT.CookieName = "" }, wantErr: true, errMsg: "JWT_COOKIE_NAME"},
		{name: "relative public path", mutate: func(c *Config) { c.Auth.PublicPaths = []string{"api/**"} }, wantErr: true, errMsg: "must start with /"},
		{name: "public path with bad glob", mutate: func(c *Config) { c.Auth.PublicPaths = []string{"/api/auth/**", "/public/["} }, wantErr: true, errMsg: "invalid AUTH_PUBLIC_PATHS"},
		{name: "public path with partial wildcard", mutate: func(c *Config) { c.Auth.PublicPaths = []string{"/x**"} }, wantErr: true, errMsg: "invalid AUTH_PUBLIC_PATHS"},
		{name: "missing database host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true, errMsg: "database configuration required"},
		{name: "missing database user", mutate: func(c *Config) { c.Database.User = "" }, wantErr: true, errMsg: "database user is required"},
		{
			name: "memory store ignores database",
			mutate: func(c *Config) {
				c.UserStore.Backend = UserStoreMemory
				c.Database = DatabaseConfig{}
			},
		},
		{
			name: "memory store rejected in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWT.CookieSecure = true
				c.UserStore.Backend = UserStoreMemory
			},
			wantErr: true,
			errMsg:  "not allowed in production",
		},
		{name: "missing log level", mutate: func(c *Config) { c.Observability.LogLevel = "" }, wantErr: true, errMsg: "log level is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "testpass")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsList(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, []string{"a"}, getEnvAsList("TEST_LIST", []string{"a"}))

	os.Setenv("TEST_LIST", "x, y,,z ")
	assert.Equal(t, []string{"x", "y", "z"}, getEnvAsList("TEST_LIST", nil))

	os.Setenv("TEST_LIST", " , ")
	assert.Nil(t, getEnvAsList("TEST_LIST", nil))
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "42", 10, 42},
		{"empty value", "", 10, 10},
		{"invalid int", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_INT", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"empty value", "", true, true},
		{"invalid bool", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_BOOL", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsBool("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))

	os.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DURATION", time.Minute))

	os.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("TEST_DURATION", time.Minute))
}
