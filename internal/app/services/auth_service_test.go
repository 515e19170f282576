package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

func TestValidatePassword(t *testing.T) {
	s := &AuthService{}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "trader2024", wantErr: nil},
		{name: "empty password", password: "", wantErr: apperrors.ErrValidationFailed},
		{name: "too short", password: "abc1", wantErr: apperrors.ErrInvalidPassword},
		{name: "digits only", password: "12345678", wantErr: apperrors.ErrInvalidPassword},
		{name: "letters only", password: "abcdefgh", wantErr: apperrors.ErrInvalidPassword},
		{name: "mixed with symbols", password: "p@ssw0rd!", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	s := &AuthService{}

	assert.NoError(t, s.validateEmail("trader@example.com"))
	assert.ErrorIs(t, s.validateEmail(""), apperrors.ErrValidationFailed)
	assert.ErrorIs(t, s.validateEmail("not-an-email"), apperrors.ErrInvalidEmail)
	assert.NoError(t, s.validateEmail("Upper.Case@Example.COM"))
}

func TestValidatePasswordConfirmation(t *testing.T) {
	s := &AuthService{}

	assert.NoError(t, s.validatePasswordConfirmation("secret12", "secret12"))

	err := s.validatePasswordConfirmation("secret12", "secret13")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	// The mismatch must be reported on the confirmPassword field only
	var customErr *apperrors.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, "confirmPassword", customErr.Details["field"])
}
