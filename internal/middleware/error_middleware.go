package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

// HandleAPIError maps service errors to HTTP responses. Verification
// failures carry their own wire codes and fixed title/message pairs; all
// other errors are matched against the sentinel list.
func HandleAPIError(c *gin.Context, err error) {
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) && customErr.Code != "" {
		handleCustomError(c, customErr)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrCourseNotFound),
		errors.Is(err, apperrors.ErrEnrollmentNotFound),
		errors.Is(err, apperrors.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found"))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"))

	case errors.Is(err, apperrors.ErrAccountDisabled):
		respondError(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled"))

	case errors.Is(err, apperrors.ErrTokenExpired):
		respondError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"))

	case errors.Is(err, apperrors.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"))

	case errors.Is(err, apperrors.ErrTokenNotFound):
		respondError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeTokenNotFound, "Token not found"))

	case errors.Is(err, apperrors.ErrInvalidPasswordResetToken):
		respondError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid or expired password reset token"))

	case errors.Is(err, apperrors.ErrPasswordResetTokenUsed):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Password reset token has already been used"))

	case errors.Is(err, apperrors.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied"))

	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists"))

	case errors.Is(err, apperrors.ErrIDCardExists):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "ID card number already registered"))

	case errors.Is(err, apperrors.ErrTraderNotVerified):
		respondError(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Identity verification required before checkout"))

	case errors.Is(err, apperrors.ErrInvalidCourseDates):
		respondError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Course dates must satisfy start < end < course date"))

	case errors.Is(err, apperrors.ErrCourseHasEnrollments):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Course has enrollments and cannot be deleted"))

	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Already registered for this course"))

	case errors.Is(err, apperrors.ErrRegistrationNotOpen):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Registration is not open for this course"))

	case errors.Is(err, apperrors.ErrSeatsExhausted):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "No available seats remain for this course"))

	case errors.Is(err, apperrors.ErrEnrollmentNotActionable):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Enrollment is not in an actionable state"))

	case errors.Is(err, apperrors.ErrCodeInvalid):
		respondError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid or expired confirmation code"))

	case errors.Is(err, apperrors.ErrCodeUsed):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, "Confirmation code has already been used"))

	case errors.Is(err, apperrors.ErrPaymentNotOwned):
		respondError(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, "Payment session belongs to another user"))

	case errors.Is(err, apperrors.ErrPaymentUnpaid):
		respondError(c, http.StatusPaymentRequired, dto.NewErrorDetail(dto.ErrorCodeConflict, "Payment has not been completed"))

	case errors.Is(err, apperrors.ErrPaymentProvider):
		respondError(c, http.StatusBadGateway, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Payment provider error"))

	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		respondError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed"))

	case errors.Is(err, apperrors.ErrResourceAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		respondError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"))

	default:
		respondError(c, http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"))
	}
}

// handleCustomError renders a CustomError that carries an explicit wire
// code, preserving the fixed titles for verification failures.
func handleCustomError(c *gin.Context, customErr *apperrors.CustomError) {
	code := dto.ErrorCode(customErr.Code)

	if msg, ok := dto.VerificationMessages[code]; ok {
		detail := dto.NewErrorDetail(code, msg.Message)
		detail = detail.WithDetails(map[string]string{"title": msg.Title})
		respondError(c, http.StatusUnprocessableEntity, detail)
		return
	}

	detail := dto.NewErrorDetail(code, customErr.Error())
	if field, ok := customErr.Details["field"].(string); ok {
		detail = detail.WithField(field)
	}
	respondError(c, http.StatusBadRequest, detail)
}

func respondError(c *gin.Context, status int, detail *dto.ErrorDetail) {
	c.JSON(status, dto.NewErrorResponse(detail))
}
