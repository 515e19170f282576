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

// EnrollmentRepository handles enrollment database operations
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var enrollmentJoinColumns = []string{
	"e.id", "e.user_id", "e.course_id", "e.status", "e.checkout_session_id",
	"e.created_at", "e.updated_at",
	"c.name", "c.course_date",
	"u.email", "u.first_name", "u.last_name",
}

func scanEnrollmentJoin(row pgx.Row) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{
		Course: &models.Course{},
		User:   &models.User{},
	}
	err := row.Scan(
		&enrollment.ID, &enrollment.UserID, &enrollment.CourseID, &enrollment.Status,
		&enrollment.CheckoutSessionID, &enrollment.CreatedAt, &enrollment.UpdatedAt,
		&enrollment.Course.Name, &enrollment.Course.CourseDate,
		&enrollment.User.Email, &enrollment.User.FirstName, &enrollment.User.LastName,
	)
	if err != nil {
		return nil, err
	}
	enrollment.Course.ID = enrollment.CourseID
	enrollment.User.ID = enrollment.UserID
	return enrollment, nil
}

// CreateEnrollmentTx inserts an enrollment within a transaction and returns
// the new ID
func (r *EnrollmentRepository) CreateEnrollmentTx(ctx context.Context, tx pgx.Tx, enrollment *models.Enrollment) (int64, error) {
	sql, args, err := r.sb.Insert("enrollments").
		Columns("user_id", "course_id", "status", "checkout_session_id").
		Values(enrollment.UserID, enrollment.CourseID, enrollment.Status, enrollment.CheckoutSessionID).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create enrollment SQL")
		return 0, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrAlreadyRegistered
		}
		logger.Error().Err(err).Msg("Error executing create enrollment query")
		return 0, fmt.Errorf("error creating enrollment: %w", err)
	}

	return id, nil
}

// GetEnrollmentByID retrieves an enrollment with its course and user joined
func (r *EnrollmentRepository) GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentJoinColumns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.user_id").
		Where(squirrel.Eq{"e.id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get enrollment SQL")
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment, err := scanEnrollmentJoin(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Int64("enrollmentID", id).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment by ID: %w", err)
	}

	return enrollment, nil
}

// GetEnrollmentByUserAndCourse retrieves a user's enrollment for a course
func (r *EnrollmentRepository) GetEnrollmentByUserAndCourse(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentJoinColumns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.user_id").
		Where(squirrel.Eq{"e.user_id": userID, "e.course_id": courseID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get enrollment by user and course SQL")
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment, err := scanEnrollmentJoin(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("courseID", courseID).
			Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment by user and course: %w", err)
	}

	return enrollment, nil
}

// GetEnrollmentBySessionID retrieves the enrollment created for a checkout
// session, if any
func (r *EnrollmentRepository) GetEnrollmentBySessionID(ctx context.Context, sessionID string) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentJoinColumns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.user_id").
		Where(squirrel.Eq{"e.checkout_session_id": sessionID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get enrollment by session SQL")
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment, err := scanEnrollmentJoin(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Str("sessionID", sessionID).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment by session ID: %w", err)
	}

	return enrollment, nil
}

// IsUserRegistered checks whether a user holds a non-rejected enrollment
// for a course. Rejected enrollments do not block re-registration.
func (r *EnrollmentRepository) IsUserRegistered(ctx context.Context, userID, courseID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("enrollments").
		Where(squirrel.Eq{"user_id": userID, "course_id": courseID}).
		Where(squirrel.NotEq{"status": models.EnrollmentRejected}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building is registered SQL")
		return false, fmt.Errorf("failed to build is registered query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).
			Int64("userID", userID).
			Int64("courseID", courseID).
			Msg("Error checking registration")
		return false, fmt.Errorf("error checking registration: %w", err)
	}

	return exists, nil
}

// ListEnrollments retrieves enrollments with pagination, optionally filtered
// by status, newest first
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, status models.EnrollmentStatus, offset, limit int) ([]*models.Enrollment, int64, error) {
	countBuilder := r.sb.Select("COUNT(*)").From("enrollments e")
	listBuilder := r.sb.Select(enrollmentJoinColumns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.user_id")

	if status != "" {
		countBuilder = countBuilder.Where(squirrel.Eq{"e.status": status})
		listBuilder = listBuilder.Where(squirrel.Eq{"e.status": status})
	}

	countSql, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count enrollments query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting enrollments")
		return nil, 0, fmt.Errorf("error counting enrollments: %w", err)
	}

	sql, args, err := listBuilder.
		OrderBy("e.created_at DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list enrollments SQL")
		return nil, 0, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollments query")
		return nil, 0, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollmentJoin(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row during list")
			return nil, 0, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating enrollment rows")
		return nil, 0, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, total, nil
}

// ListEnrollmentsByUser retrieves all enrollments of a user, newest first
func (r *EnrollmentRepository) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentJoinColumns...).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users u ON u.id = e.user_id").
		Where(squirrel.Eq{"e.user_id": userID}).
		OrderBy("e.created_at DESC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list enrollments by user SQL")
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollments by user query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollmentJoin(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row during list by user")
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating enrollment rows")
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, nil
}

// UpdateStatus changes an enrollment's status
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error {
	sql, args, err := r.sb.Update("enrollments").
		SetMap(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": enrollmentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update enrollment status SQL")
		return fmt.Errorf("failed to build update enrollment status query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", enrollmentID).Msg("Error executing update enrollment status query")
		return fmt.Errorf("error updating enrollment status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// UpdateStatusTx changes an enrollment's status inside the caller's
// transaction
func (r *EnrollmentRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, enrollmentID int64, status models.EnrollmentStatus) error {
	sql, args, err := r.sb.Update("enrollments").
		SetMap(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": enrollmentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update enrollment status SQL")
		return fmt.Errorf("failed to build update enrollment status query: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", enrollmentID).Msg("Error executing update enrollment status query")
		return fmt.Errorf("error updating enrollment status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}
