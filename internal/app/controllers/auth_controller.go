// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/services"
	"github.com/btrade/btrade-backend/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user sign-up
// @Summary Register a new user
// @Description Creates a new account, optionally linking a trader profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request or password mismatch"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	authResponse, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Str("email", req.Email).
		Int64("userID", authResponse.User.ID).
		Msg("User registered")

	c.setSessionCookie(ctx, authResponse.Token.AccessToken)
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      authResponse,
		Timestamp: time.Now(),
	})
}

// Login handles user sign-in
// @Summary User login
// @Description Authenticates a user and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	authResponse, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("email", req.Email).Msg("User logged in")

	c.setSessionCookie(ctx, authResponse.Token.AccessToken)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      authResponse,
		Timestamp: time.Now(),
	})
}

// RefreshToken exchanges a refresh token for a new token pair
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh-token [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	tokenResponse, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookie(ctx, tokenResponse.AccessToken)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      tokenResponse,
		Timestamp: time.Now(),
	})
}

// Logout revokes the refresh token and clears the session cookie
// @Summary User logout
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LogoutRequest true "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.LogoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Logged out successfully"},
		Timestamp: time.Now(),
	})
}

// ForgotPassword starts the password reset flow. The response is identical
// whether or not the email exists.
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.authService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		c.logger.Error().Err(err).Msg("Forgot password request failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "If the email exists, a reset link has been sent."},
		Timestamp: time.Now(),
	})
}

// ResetPassword completes the password reset flow
// @Summary Reset password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired token"
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.authService.ResetPassword(ctx.Request.Context(), &req); err != nil {
		c.logger.Warn().Err(err).Msg("Password reset failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Msg("Password reset completed")
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Password has been reset. You can now sign in."},
		Timestamp: time.Now(),
	})
}

// GetProfile returns the authenticated user's profile
// @Summary Get current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	profile, err := c.authService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      profile,
		Timestamp: time.Now(),
	})
}

func (c *AuthController) setSessionCookie(ctx *gin.Context, accessToken string) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, accessToken, middleware.SessionCookieMaxAge, "/", "", false, true)
}

func (c *AuthController) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
}
