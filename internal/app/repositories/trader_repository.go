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
	"github.com/btrade/btrade-backend/internal/pkg/dberrors"
	"github.com/btrade/btrade-backend/internal/pkg/logger"
)

// TraderRepository handles trader profile database operations
type TraderRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTraderRepository creates a new TraderRepository
func NewTraderRepository(db *pgxpool.Pool) *TraderRepository {
	return &TraderRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateTrader creates a trader profile for a user
func (r *TraderRepository) CreateTrader(ctx context.Context, trader *models.Trader) (int64, error) {
	sql, args, err := r.sb.Insert("traders").
		Columns("user_id", "id_card_number", "phone").
		Values(trader.UserID, trader.IDCardNumber, trader.Phone).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create trader SQL")
		return 0, fmt.Errorf("failed to build create trader query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrIDCardExists
		}
		logger.Error().Err(err).Msg("Error executing create trader query")
		return 0, fmt.Errorf("error creating trader: %w", err)
	}

	return id, nil
}

// GetTraderByUserID retrieves the trader profile of a user
func (r *TraderRepository) GetTraderByUserID(ctx context.Context, userID int64) (*models.Trader, error) {
	sql, args, err := r.sb.Select("id", "user_id", "id_card_number", "phone", "verified_at", "created_at").
		From("traders").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get trader SQL")
		return nil, fmt.Errorf("failed to build get trader query: %w", err)
	}

	trader := &models.Trader{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&trader.ID, &trader.UserID, &trader.IDCardNumber, &trader.Phone, &trader.VerifiedAt, &trader.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTraderNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning trader row")
		return nil, fmt.Errorf("error getting trader by user ID: %w", err)
	}

	return trader, nil
}

// MarkVerified records a successful ID verification for a user's trader profile
func (r *TraderRepository) MarkVerified(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("traders").
		SetMap(map[string]interface{}{
			"verified_at": time.Now(),
			"updated_at":  time.Now(),
		}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building mark verified SQL")
		return fmt.Errorf("failed to build mark verified query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing mark verified query")
		return fmt.Errorf("error marking trader verified: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTraderNotFound
	}

	return nil
}

// IDCardExists checks if an ID card number is already registered
func (r *TraderRepository) IDCardExists(ctx context.Context, idCardNumber string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("traders").
		Where(squirrel.Eq{"id_card_number": idCardNumber}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building ID card exists SQL")
		return false, fmt.Errorf("failed to build ID card existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Msg("Error checking ID card existence")
		return false, fmt.Errorf("error checking ID card existence: %w", err)
	}

	return exists, nil
}
