package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user := NewUser("  Alice@Example.com ", "hash", RoleUser)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, RoleUser, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_Roles(t *testing.T) {
	assert.Equal(t, []string{"ADMIN"}, (&User{Role: RoleAdmin}).Roles())
	assert.Nil(t, (&User{}).Roles())
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	data, err := json.Marshal(NewUser("alice@example.com", "$2a$10$secret", RoleUser))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), `"role":"USER"`)
}

func TestParseUserRole(t *testing.T) {
	tests := []struct {
		in      string
		want    UserRole
		wantErr bool
	}{
		{in: "USER", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: " Admin ", want: RoleAdmin},
		{in: "ROLE_ADMIN", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUserRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
