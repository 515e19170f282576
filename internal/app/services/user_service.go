package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
)

// UserService defines the interface for admin user management operations
type UserService interface {
	ListUsers(ctx context.Context, page, pageSize int) ([]*dto.UserResponse, int64, error)
	GetUser(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateRole(ctx context.Context, actorID, userID int64, role models.RoleType) (*dto.UserResponse, error)
	UpdateActive(ctx context.Context, actorID, userID int64, isActive bool) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, actorID, userID int64) error
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	userRepo   *repositories.UserRepository
	traderRepo *repositories.TraderRepository
	tokenRepo  *repositories.TokenRepository
	logger     zerolog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(
	userRepo *repositories.UserRepository,
	traderRepo *repositories.TraderRepository,
	tokenRepo *repositories.TokenRepository,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		traderRepo: traderRepo,
		tokenRepo:  tokenRepo,
		logger:     logger,
	}
}

// ListUsers retrieves user accounts with pagination
func (s *userServiceImpl) ListUsers(ctx context.Context, page, pageSize int) ([]*dto.UserResponse, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	users, total, err := s.userRepo.ListUsers(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, total, nil
}

// GetUser retrieves a single user with their trader profile
func (s *userServiceImpl) GetUser(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if trader, err := s.traderRepo.GetTraderByUserID(ctx, userID); err == nil {
		user.Trader = trader
	}

	return dto.NewUserResponse(user), nil
}

// UpdateRole changes a user's role. Admins cannot change their own role.
func (s *userServiceImpl) UpdateRole(ctx context.Context, actorID, userID int64, role models.RoleType) (*dto.UserResponse, error) {
	if actorID == userID {
		return nil, apperrors.ErrPermissionDenied
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("actorID", actorID).
		Int64("userID", userID).
		Str("role", string(role)).
		Msg("User role updated")

	return s.GetUser(ctx, userID)
}

// UpdateActive enables or disables a user account. Disabling revokes all of
// the user's refresh tokens. Admins cannot disable themselves.
func (s *userServiceImpl) UpdateActive(ctx context.Context, actorID, userID int64, isActive bool) (*dto.UserResponse, error) {
	if actorID == userID {
		return nil, apperrors.ErrPermissionDenied
	}

	if err := s.userRepo.UpdateActive(ctx, userID, isActive); err != nil {
		return nil, err
	}

	if !isActive {
		if err := s.tokenRepo.DeleteRefreshTokensByUser(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to revoke refresh tokens for disabled account")
		}
	}

	s.logger.Info().
		Int64("actorID", actorID).
		Int64("userID", userID).
		Bool("isActive", isActive).
		Msg("User active state updated")

	return s.GetUser(ctx, userID)
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (s *userServiceImpl) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return apperrors.ErrPermissionDenied
	}

	if err := s.userRepo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().
		Int64("actorID", actorID).
		Int64("userID", userID).
		Msg("User deleted")
	return nil
}
