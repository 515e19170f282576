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

// PasswordResetTokenRepository handles password reset token database operations
type PasswordResetTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(db *pgxpool.Pool) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateToken stores a new password reset token
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, token *models.PasswordResetToken) error {
	sql, args, err := r.sb.Insert("password_reset_tokens").
		Columns("user_id", "token", "expires_at").
		Values(token.UserID, token.Token, token.ExpiresAt).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create reset token SQL")
		return fmt.Errorf("failed to build create reset token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing create reset token query")
		return fmt.Errorf("error creating password reset token: %w", err)
	}

	return nil
}

// GetToken retrieves a password reset token by its value
func (r *PasswordResetTokenRepository) GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	sql, args, err := r.sb.Select("id", "user_id", "token", "expires_at", "used", "created_at").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get reset token SQL")
		return nil, fmt.Errorf("failed to build get reset token query: %w", err)
	}

	prt := &models.PasswordResetToken{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&prt.ID, &prt.UserID, &prt.Token, &prt.ExpiresAt, &prt.Used, &prt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidPasswordResetToken
		}
		logger.Error().Err(err).Msg("Error scanning reset token row")
		return nil, fmt.Errorf("error getting password reset token: %w", err)
	}

	return prt, nil
}

// MarkUsed consumes a password reset token
func (r *PasswordResetTokenRepository) MarkUsed(ctx context.Context, tokenID int64) error {
	sql, args, err := r.sb.Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"id": tokenID, "used": false}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building mark reset token used SQL")
		return fmt.Errorf("failed to build mark reset token used query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("tokenID", tokenID).Msg("Error executing mark reset token used query")
		return fmt.Errorf("error marking reset token used: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPasswordResetTokenUsed
	}

	return nil
}

// InvalidateTokensForUser marks all of a user's outstanding reset tokens as
// used. Called when a reset completes so older emails cannot be replayed.
func (r *PasswordResetTokenRepository) InvalidateTokensForUser(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("password_reset_tokens").
		Set("used", true).
		Where(squirrel.Eq{"user_id": userID, "used": false}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building invalidate reset tokens SQL")
		return fmt.Errorf("failed to build invalidate reset tokens query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing invalidate reset tokens query")
		return fmt.Errorf("error invalidating reset tokens: %w", err)
	}

	return nil
}

// DeleteExpiredTokens removes reset tokens past their expiry and returns the
// number deleted
func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Delete("password_reset_tokens").
		Where(squirrel.Lt{"expires_at": time.Now()}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete expired reset tokens SQL")
		return 0, fmt.Errorf("failed to build delete expired reset tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete expired reset tokens query")
		return 0, fmt.Errorf("error deleting expired reset tokens: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
