package dto

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidEmail       ErrorCode = "AUTH_002"
	ErrorCodeInvalidPassword    ErrorCode = "AUTH_003"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_007"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"
	ErrorCodeAccountDisabled    ErrorCode = "AUTH_009"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeConflict              ErrorCode = "RES_004"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"

	// Server errors
	ErrorCodeInternalServer       ErrorCode = "SRV_001"
	ErrorCodeExternalServiceError ErrorCode = "SRV_003"

	ErrorCodeForbidden ErrorCode = "FORBIDDEN"
)

// Identity verification error codes. These are part of the wire contract
// consumed by the registration dialog and must not change.
const (
	ErrorCodeTraderMissing  ErrorCode = "Error-01-0001"
	ErrorCodeIDCardInvalid  ErrorCode = "Error-01-0004"
	ErrorCodeIDCardMismatch ErrorCode = "Error-01-0007"
)

// VerificationMessage is the fixed title/message pair shown for an
// identity verification failure.
type VerificationMessage struct {
	Title   string
	Message string
}

// VerificationMessages maps verification error codes to their fixed
// user-facing title and message.
var VerificationMessages = map[ErrorCode]VerificationMessage{
	ErrorCodeTraderMissing: {
		Title:   "Trader Profile Missing",
		Message: "No trader profile is linked to this account. Complete your profile before registering.",
	},
	ErrorCodeIDCardInvalid: {
		Title:   "ID Card Invalid",
		Message: "The ID card number must be exactly 13 digits.",
	},
	ErrorCodeIDCardMismatch: {
		Title:   "ID Card Mismatch",
		Message: "The ID card number does not match the one on your trader profile.",
	},
}

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

// Severity levels
const (
	ErrorSeverityInfo     ErrorSeverity = "INFO"
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"AUTH_001"`
	Message  string        `json:"message" example:"Invalid credentials"`
	Field    string        `json:"field,omitempty" example:"email"`
	Severity ErrorSeverity `json:"severity" example:"ERROR"`
	Details  interface{}   `json:"details,omitempty"`
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: ErrorSeverityError,
	}
}

// WithField adds a field name to the error detail
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error
func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

// WithDetails adds additional details to the error
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}

// HandleValidationError converts a binding/validation error into an
// ErrorDetail, surfacing the first offending field when available.
func HandleValidationError(err error) *ErrorDetail {
	var validationErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &validationErrs); ok && len(validationErrs) > 0 {
		fieldErr := validationErrs[0]
		detail := NewErrorDetail(ErrorCodeValidationFailed, formatFieldError(fieldErr))
		return detail.WithField(lowerFirst(fieldErr.Field()))
	}
	detail := NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format")
	return detail.WithDetails(err.Error())
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "eqfield":
		return e.Field() + " must match " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", e.Field(), e.Param())
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}
