package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Trader / identity verification errors
var (
	ErrTraderNotFound    = errors.New("trader profile not found")
	ErrIDCardInvalid     = errors.New("invalid ID card number format")
	ErrIDCardMismatch    = errors.New("ID card number mismatch")
	ErrIDCardExists      = errors.New("ID card number already registered")
	ErrTraderNotVerified = errors.New("trader identity not verified")
)

// Course errors
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrCourseHasEnrollments = errors.New("course has enrollments and cannot be deleted")
	ErrInvalidCourseDates   = errors.New("invalid course dates")
)

// Enrollment errors
var (
	ErrEnrollmentNotFound      = errors.New("enrollment not found")
	ErrAlreadyRegistered       = errors.New("already registered for this course")
	ErrRegistrationNotOpen     = errors.New("registration is not open")
	ErrSeatsExhausted          = errors.New("no available seats")
	ErrEnrollmentNotActionable = errors.New("enrollment is not in an actionable state")
	ErrCodeInvalid             = errors.New("invalid or expired confirmation code")
	ErrCodeUsed                = errors.New("confirmation code has already been used")
)

// Payment / checkout errors
var (
	ErrPaymentNotFound   = errors.New("payment session not found")
	ErrPaymentNotOwned   = errors.New("payment session belongs to another user")
	ErrPaymentUnpaid     = errors.New("payment has not been completed")
	ErrPaymentProvider   = errors.New("payment provider error")
)

// Password reset errors
var (
	ErrInvalidPasswordResetToken = errors.New("invalid or expired password reset token")
	ErrPasswordResetTokenUsed    = errors.New("password reset token has already been used")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
