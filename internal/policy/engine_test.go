package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/terrace/internal/auth"
)

func TestNewValidatesRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{name: "empty pattern", rules: []Rule{{Pattern: "", Requirement: Public}}},
		{name: "relative pattern", rules: []Rule{{Pattern: "admin/**", Requirement: Public}}},
		{name: "role without name", rules: []Rule{{Pattern: "/admin/**", Requirement: RequiresRole("")}}},
		{name: "unknown access", rules: []Rule{{Pattern: "/x", Requirement: Requirement{Access: "sometimes"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.rules...)
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}

	assert.Panics(t, func() { MustNew(Rule{Pattern: "bad"}) })
}

func TestEvaluateAccessMatrix(t *testing.T) {
	p, err := New(
		Rule{Pattern: "/api/auth/**", Requirement: Public},
		Rule{Pattern: "/admin/**", Requirement: RequiresRole(auth.RoleAdmin)},
		Rule{Pattern: "/dashboard/**", Requirement: Authenticated},
	)
	require.NoError(t, err)

	user := auth.NewPrincipal("alice@example.com", auth.RoleUser)
	admin := auth.NewPrincipal("root@example.com", auth.RoleAdmin)

	tests := []struct {
		name      string
		path      string
		principal *auth.Principal
		want      Outcome
	}{
		{name: "anonymous login", path: "/api/auth/login", want: Allow},
		{name: "anonymous dashboard", path: "/dashboard/x", want: Unauthorized},
		{name: "user dashboard", path: "/dashboard/x", principal: &user, want: Allow},
		{name: "anonymous admin", path: "/admin/x", want: Unauthorized},
		{name: "user admin", path: "/admin/x", principal: &user, want: Forbidden},
		{name: "admin admin", path: "/admin/x", principal: &admin, want: Allow},
		{name: "anonymous unmatched", path: "/elsewhere", want: Unauthorized},
		{name: "user unmatched", path: "/elsewhere", principal: &user, want: Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(tt.path, tt.principal).Outcome)
		})
	}
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	p := MustNew(
		Rule{Pattern: "/reports/**", Requirement: Authenticated},
		Rule{Pattern: "/reports/public", Requirement: Public},
	)

	d := p.Evaluate("/reports/public", nil)
	assert.Equal(t, Unauthorized, d.Outcome)
	require.NotNil(t, d.Rule)
	assert.Equal(t, "/reports/**", d.Rule.Pattern)

	flipped := MustNew(
		Rule{Pattern: "/reports/public", Requirement: Public},
		Rule{Pattern: "/reports/**", Requirement: Authenticated},
	)
	assert.True(t, flipped.Evaluate("/reports/public", nil).Allowed())
}

func TestEvaluateFallback(t *testing.T) {
	p := MustNew()

	d := p.Evaluate("/anything", nil)
	assert.Equal(t, Unauthorized, d.Outcome)
	assert.Nil(t, d.Rule)
}

func TestRulesReturnsCopy(t *testing.T) {
	p := MustNew(Permit("/a")...)
	rules := p.Rules()
	rules[0].Requirement = Authenticated

	assert.True(t, p.Evaluate("/a", nil).Allowed())
}

func TestDefaultRules(t *testing.T) {
	p, err := New(DefaultRules()...)
	require.NoError(t, err)

	user := auth.NewPrincipal("alice@example.com", auth.RoleUser)
	admin := auth.NewPrincipal("root@example.com", auth.RoleAdmin)

	for _, path := range []string{"/", "/home", "/login", "/register", "/api/auth/login", "/css/site.css", "/favicon.ico", "/healthz", "/readyz"} {
		assert.True(t, p.Evaluate(path, nil).Allowed(), path)
	}

	assert.Equal(t, Unauthorized, p.Evaluate("/dashboard", nil).Outcome)
	assert.True(t, p.Evaluate("/dashboard", &user).Allowed())
	assert.Equal(t, Forbidden, p.Evaluate("/admin", &user).Outcome)
	assert.Equal(t, Forbidden, p.Evaluate("/api/admin/users", &user).Outcome)
	assert.True(t, p.Evaluate("/admin", &admin).Allowed())
	assert.Equal(t, Unauthorized, p.Evaluate("/api/other", nil).Outcome)
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "role(ADMIN)", RequiresRole(auth.RoleAdmin).String())
}
