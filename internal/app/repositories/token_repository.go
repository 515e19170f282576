package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("user_id", "token", "expires_at").
		Values(token.UserID, token.Token, token.ExpiresAt).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create refresh token SQL")
		return fmt.Errorf("failed to build create refresh token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing create refresh token query")
		return fmt.Errorf("error creating refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token by its value
func (r *TokenRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql, args, err := r.sb.Select("id", "user_id", "token", "expires_at", "created_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get refresh token SQL")
		return nil, fmt.Errorf("failed to build get refresh token query: %w", err)
	}

	rt := &models.RefreshToken{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error scanning refresh token row")
		return nil, fmt.Errorf("error getting refresh token: %w", err)
	}

	return rt, nil
}

// DeleteRefreshToken removes a single refresh token
func (r *TokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete refresh token SQL")
		return fmt.Errorf("failed to build delete refresh token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing delete refresh token query")
		return fmt.Errorf("error deleting refresh token: %w", err)
	}

	return nil
}

// DeleteRefreshTokensByUser removes all refresh tokens for a user
func (r *TokenRepository) DeleteRefreshTokensByUser(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete refresh tokens by user SQL")
		return fmt.Errorf("failed to build delete refresh tokens query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing delete refresh tokens by user query")
		return fmt.Errorf("error deleting refresh tokens: %w", err)
	}

	return nil
}

// DeleteExpiredRefreshTokens removes refresh tokens past their expiry and
// returns the number deleted
func (r *TokenRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Lt{"expires_at": time.Now()}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete expired refresh tokens SQL")
		return 0, fmt.Errorf("failed to build delete expired refresh tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete expired refresh tokens query")
		return 0, fmt.Errorf("error deleting expired refresh tokens: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
