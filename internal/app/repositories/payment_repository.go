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

// PaymentRepository handles payment session database operations
type PaymentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var paymentColumns = []string{"id", "session_id", "user_id", "course_id", "amount", "status", "created_at"}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	payment := &models.Payment{}
	err := row.Scan(
		&payment.ID, &payment.SessionID, &payment.UserID, &payment.CourseID,
		&payment.Amount, &payment.Status, &payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePayment records a new checkout session
func (r *PaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) (int64, error) {
	sql, args, err := r.sb.Insert("payments").
		Columns("session_id", "user_id", "course_id", "amount", "status").
		Values(payment.SessionID, payment.UserID, payment.CourseID, payment.Amount, payment.Status).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create payment SQL")
		return 0, fmt.Errorf("failed to build create payment query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrResourceAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create payment query")
		return 0, fmt.Errorf("error creating payment: %w", err)
	}

	return id, nil
}

// GetPaymentBySessionID retrieves a payment by its provider session ID
func (r *PaymentRepository) GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	sql, args, err := r.sb.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"session_id": sessionID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get payment SQL")
		return nil, fmt.Errorf("failed to build get payment query: %w", err)
	}

	payment, err := scanPayment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		logger.Error().Err(err).Str("sessionID", sessionID).Msg("Error scanning payment row")
		return nil, fmt.Errorf("error getting payment by session ID: %w", err)
	}

	return payment, nil
}

// GetOpenPayment returns the user's pending checkout session for a course,
// if one exists. Used to keep session creation idempotent.
func (r *PaymentRepository) GetOpenPayment(ctx context.Context, userID, courseID int64) (*models.Payment, error) {
	sql, args, err := r.sb.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID, "status": models.PaymentCreated}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get open payment SQL")
		return nil, fmt.Errorf("failed to build get open payment query: %w", err)
	}

	payment, err := scanPayment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("courseID", courseID).
			Msg("Error scanning open payment row")
		return nil, fmt.Errorf("error getting open payment: %w", err)
	}

	return payment, nil
}

// UpdateStatusTx changes a payment's status within a transaction
func (r *PaymentRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, paymentID int64, status models.PaymentStatus) error {
	sql, args, err := r.sb.Update("payments").
		SetMap(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": paymentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update payment status SQL")
		return fmt.Errorf("failed to build update payment status query: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paymentID", paymentID).Msg("Error executing update payment status query")
		return fmt.Errorf("error updating payment status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}

	return nil
}

// UpdateStatus changes a payment's status
func (r *PaymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status models.PaymentStatus) error {
	sql, args, err := r.sb.Update("payments").
		SetMap(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": paymentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update payment status SQL")
		return fmt.Errorf("failed to build update payment status query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paymentID", paymentID).Msg("Error executing update payment status query")
		return fmt.Errorf("error updating payment status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrPaymentNotFound
	}

	return nil
}

// DeleteStalePayments removes CREATED sessions older than the cutoff and
// returns the number deleted. Abandoned checkouts accumulate otherwise.
func (r *PaymentRepository) DeleteStalePayments(ctx context.Context, olderThan time.Time) (int64, error) {
	sql, args, err := r.sb.Delete("payments").
		Where(squirrel.Eq{"status": models.PaymentCreated}).
		Where(squirrel.Lt{"created_at": olderThan}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete stale payments SQL")
		return 0, fmt.Errorf("failed to build delete stale payments query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete stale payments query")
		return 0, fmt.Errorf("error deleting stale payments: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
