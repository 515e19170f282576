package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a sign-up request. Password and
// ConfirmPassword must match; a mismatch is reported on the
// confirmPassword field only.
type RegisterRequest struct {
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=8"`
	ConfirmPassword string  `json:"confirmPassword" binding:"required"`
	FirstName       string  `json:"firstName" binding:"required"`
	LastName        string  `json:"lastName" binding:"required"`
	IDCardNumber    *string `json:"idCardNumber,omitempty"` // Optional trader profile, 13 digits
	Phone           *string `json:"phone,omitempty"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int    `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int    `json:"refreshTokenExpiresIn,omitempty"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest carries the refresh token to revoke on sign-out.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}
