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

// EnrollmentCodeRepository handles confirmation code database operations
type EnrollmentCodeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentCodeRepository creates a new EnrollmentCodeRepository
func NewEnrollmentCodeRepository(db *pgxpool.Pool) *EnrollmentCodeRepository {
	return &EnrollmentCodeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateCode stores a new confirmation code for an enrollment
func (r *EnrollmentCodeRepository) CreateCode(ctx context.Context, code *models.EnrollmentCode) (int64, error) {
	sql, args, err := r.sb.Insert("enrollment_codes").
		Columns("enrollment_id", "code", "expires_at").
		Values(code.EnrollmentID, code.Code, code.ExpiresAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create code SQL")
		return 0, fmt.Errorf("failed to build create code query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing create code query")
		return 0, fmt.Errorf("error creating enrollment code: %w", err)
	}

	return id, nil
}

// GetByCode retrieves a confirmation code by its value
func (r *EnrollmentCodeRepository) GetByCode(ctx context.Context, code string) (*models.EnrollmentCode, error) {
	sql, args, err := r.sb.Select("id", "enrollment_id", "code", "expires_at", "used_at", "created_at").
		From("enrollment_codes").
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get code SQL")
		return nil, fmt.Errorf("failed to build get code query: %w", err)
	}

	ec := &models.EnrollmentCode{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&ec.ID, &ec.EnrollmentID, &ec.Code, &ec.ExpiresAt, &ec.UsedAt, &ec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCodeInvalid
		}
		logger.Error().Err(err).Msg("Error scanning enrollment code row")
		return nil, fmt.Errorf("error getting enrollment code: %w", err)
	}

	return ec, nil
}

// MarkUsedTx consumes a confirmation code inside the caller's transaction.
// Returns ErrCodeUsed if it was already consumed.
func (r *EnrollmentCodeRepository) MarkUsedTx(ctx context.Context, tx pgx.Tx, codeID int64) error {
	sql, args, err := r.sb.Update("enrollment_codes").
		Set("used_at", time.Now()).
		Where(squirrel.Eq{"id": codeID}).
		Where(squirrel.Eq{"used_at": nil}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building mark code used SQL")
		return fmt.Errorf("failed to build mark code used query: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("codeID", codeID).Msg("Error executing mark code used query")
		return fmt.Errorf("error marking code used: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCodeUsed
	}

	return nil
}

// DeleteExpiredCodes removes codes whose expiry has passed and returns the
// number deleted
func (r *EnrollmentCodeRepository) DeleteExpiredCodes(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Delete("enrollment_codes").
		Where(squirrel.Lt{"expires_at": time.Now()}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete expired codes SQL")
		return 0, fmt.Errorf("failed to build delete expired codes query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete expired codes query")
		return 0, fmt.Errorf("error deleting expired codes: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
