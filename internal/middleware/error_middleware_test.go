package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, *dto.ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, err)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, &resp
}

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"course not found", apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"account disabled", apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
		{"email exists", apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"seats exhausted", apperrors.ErrSeatsExhausted, http.StatusConflict, dto.ErrorCodeConflict},
		{"already registered", apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeConflict},
		{"registration not open", apperrors.ErrRegistrationNotOpen, http.StatusConflict, dto.ErrorCodeConflict},
		{"trader not verified", apperrors.ErrTraderNotVerified, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"invalid course dates", apperrors.ErrInvalidCourseDates, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"payment unpaid", apperrors.ErrPaymentUnpaid, http.StatusPaymentRequired, dto.ErrorCodeConflict},
		{"payment provider down", apperrors.ErrPaymentProvider, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{"code invalid", apperrors.ErrCodeInvalid, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"unknown error", assert.AnError, http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := recordError(t, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestHandleAPIErrorVerificationCodes(t *testing.T) {
	err := apperrors.NewCustomError(apperrors.ErrIDCardMismatch, "mismatch").
		WithCode(string(dto.ErrorCodeIDCardMismatch))

	w, resp := recordError(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeIDCardMismatch, resp.Error.Code)
	assert.Equal(t, dto.VerificationMessages[dto.ErrorCodeIDCardMismatch].Message, resp.Error.Message)

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ID Card Mismatch", details["title"])
}

func TestHandleAPIErrorFieldLevelValidation(t *testing.T) {
	err := apperrors.NewCustomError(apperrors.ErrValidationFailed, "Passwords do not match").
		WithCode(string(dto.ErrorCodeValidationFailed)).
		WithDetails(map[string]interface{}{"field": "confirmPassword"})

	w, resp := recordError(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "confirmPassword", resp.Error.Field)
}
