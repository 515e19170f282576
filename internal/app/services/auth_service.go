package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/auth"
	"github.com/btrade/btrade-backend/internal/pkg/email"
	"github.com/btrade/btrade-backend/internal/pkg/metrics"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	idCardRegex = regexp.MustCompile(`^\d{13}$`)
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo          *repositories.UserRepository
	traderRepo        *repositories.TraderRepository
	tokenRepo         *repositories.TokenRepository
	passwordResetRepo *repositories.PasswordResetTokenRepository
	jwtService        *auth.JWTService
	emailService      email.EmailService
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *repositories.UserRepository,
	traderRepo *repositories.TraderRepository,
	tokenRepo *repositories.TokenRepository,
	passwordResetRepo *repositories.PasswordResetTokenRepository,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		traderRepo:        traderRepo,
		tokenRepo:         tokenRepo,
		passwordResetRepo: passwordResetRepo,
		jwtService:        jwtService,
		emailService:      emailService,
		metrics:           m,
		logger:            logger,
	}
}

// validateEmail validates an email address
func (s *AuthService) validateEmail(address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: email cannot be empty", apperrors.ErrValidationFailed)
	}
	if !emailRegex.MatchString(strings.ToLower(address)) {
		return apperrors.ErrInvalidEmail
	}
	return nil
}

// validatePassword checks if password meets requirements
func (s *AuthService) validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", apperrors.ErrInvalidPassword)
	}

	hasLetter := false
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return fmt.Errorf("%w: password must contain at least one letter", apperrors.ErrInvalidPassword)
	}

	hasDigit := false
	for _, char := range password {
		if unicode.IsDigit(char) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", apperrors.ErrInvalidPassword)
	}

	return nil
}

// validatePasswordConfirmation ensures password and confirmation match. A
// mismatch is reported on the confirmPassword field only.
func (s *AuthService) validatePasswordConfirmation(password, confirmPassword string) error {
	if password != confirmPassword {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "Passwords do not match").
			WithCode(string(dto.ErrorCodeValidationFailed)).
			WithDetails(map[string]interface{}{"field": "confirmPassword"})
	}
	return nil
}

// Register creates a new user account, optionally with a trader profile
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := s.validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.validatePasswordConfirmation(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if req.IDCardNumber != nil && !idCardRegex.MatchString(*req.IDCardNumber) {
		return nil, apperrors.ErrIDCardInvalid
	}

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashedPassword,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  models.RoleUser,
		IsActive:  true,
	}

	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = userID

	if req.IDCardNumber != nil {
		trader := &models.Trader{
			UserID:       userID,
			IDCardNumber: *req.IDCardNumber,
			Phone:        req.Phone,
		}
		if _, err := s.traderRepo.CreateTrader(ctx, trader); err != nil {
			return nil, err
		}
		user.Trader = trader
	}

	s.metrics.RegistrationsTotal.Inc()
	s.logger.Info().Int64("userID", userID).Str("email", user.Email).Msg("User registered")

	// Welcome email is best effort
	go func() {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
			s.logger.Warn().Err(err).Str("email", user.Email).Msg("Failed to send welcome email")
		}
	}()

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: *token,
		User:  dto.NewUserResponse(user),
	}, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := s.validateEmail(req.Email); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to update last login time")
	}

	if trader, err := s.traderRepo.GetTraderByUserID(ctx, user.ID); err == nil {
		user.Trader = trader
	}

	s.metrics.LoginsTotal.Inc()

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: *token,
		User:  dto.NewUserResponse(user),
	}, nil
}

// RefreshToken creates a new token pair using a refresh token. The old
// refresh token is deleted so it cannot be reused.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if stored.ExpiresAt.Before(time.Now()) {
		_ = s.tokenRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.generateTokenResponse(ctx, user)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.ErrTokenInvalid
	}
	return s.tokenRepo.DeleteRefreshToken(ctx, refreshToken)
}

// ForgotPassword starts the password reset flow. To avoid leaking which
// emails exist, an unknown address is not reported as an error.
func (s *AuthService) ForgotPassword(ctx context.Context, address string) error {
	if err := s.validateEmail(address); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(address)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("email", address).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := s.passwordResetRepo.CreateToken(ctx, token); err != nil {
		return err
	}

	go func() {
		if err := s.emailService.SendPasswordResetEmail(user.Email, user.FirstName, token.Token); err != nil {
			s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to send password reset email")
		}
	}()

	return nil
}

// ResetPassword completes the password reset flow
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := s.validatePassword(req.Password); err != nil {
		return err
	}
	if err := s.validatePasswordConfirmation(req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	token, err := s.passwordResetRepo.GetToken(ctx, req.Token)
	if err != nil {
		return err
	}

	if token.Used {
		return apperrors.ErrPasswordResetTokenUsed
	}
	if token.ExpiresAt.Before(time.Now()) {
		return apperrors.ErrInvalidPasswordResetToken
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, token.UserID, hashedPassword); err != nil {
		return err
	}

	if err := s.passwordResetRepo.InvalidateTokensForUser(ctx, token.UserID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", token.UserID).Msg("Failed to invalidate outstanding reset tokens")
	}

	// Force re-authentication everywhere after a password change
	if err := s.tokenRepo.DeleteRefreshTokensByUser(ctx, token.UserID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", token.UserID).Msg("Failed to revoke refresh tokens after password reset")
	}

	s.logger.Info().Int64("userID", token.UserID).Msg("Password reset completed")
	return nil
}

// GetProfile retrieves the authenticated user's profile
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if trader, err := s.traderRepo.GetTraderByUserID(ctx, userID); err == nil {
		user.Trader = trader
	}

	return dto.NewUserResponse(user), nil
}

func (s *AuthService) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	stored := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: s.jwtService.GetRefreshTokenExpiry(),
	}
	if err := s.tokenRepo.CreateRefreshToken(ctx, stored); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             expiresIn,
		RefreshTokenExpiresIn: refreshExpiresIn,
	}, nil
}
