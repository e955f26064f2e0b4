package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     ErrLoginFailed.Wrap(errors.New("db error")),
			wantMsg: "internal: login failed (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     ErrInvalidCredentials,
			wantMsg: "unauthorized: invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "same sentinel", err: ErrInvalidCredentials, target: ErrInvalidCredentials, want: true},
		{name: "wrapped sentinel", err: ErrLoginFailed.Wrap(errors.New("boom")), target: ErrLoginFailed, want: true},
		{name: "fmt wrapped", err: fmt.Errorf("login: %w", ErrInvalidCredentials), target: ErrInvalidCredentials, want: true},
		{name: "same type different message", err: ErrInvalidToken, target: ErrInvalidCredentials, want: false},
		{name: "different type", err: ErrLoginFailed, target: ErrInvalidCredentials, want: false},
		{name: "not a domain error", err: ErrInternal, target: errors.New("regular error"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := ErrLoginFailed.Wrap(cause)

	assert.NotSame(t, ErrLoginFailed, wrapped)
	assert.Nil(t, ErrLoginFailed.Err)
	assert.ErrorIs(t, wrapped, cause)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrUserNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"validation", NewDomainError(ErrorTypeValidation, "invalid input", nil), IsValidationError, true},
		{"invalid credentials is unauthorized", ErrInvalidCredentials, IsUnauthorizedError, true},
		{"invalid token is unauthorized", ErrInvalidToken, IsUnauthorizedError, true},
		{"forbidden", ErrForbidden, IsForbiddenError, true},
		{"unauthorized is not forbidden", ErrUnauthorized, IsForbiddenError, false},
		{"regular error", errors.New("regular"), IsUnauthorizedError, false},
		{"nil error", nil, IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeUnauthorized, GetErrorType(ErrInvalidCredentials))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(fmt.Errorf("x: %w", ErrLoginFailed)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.Details["field"] = "email"
	err.Details["reason"] = "invalid format"

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "email", details["field"])
	assert.Equal(t, "invalid format", details["reason"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}
