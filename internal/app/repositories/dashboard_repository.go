package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/pkg/logger"
)

// DashboardRepository computes the admin dashboard aggregates
type DashboardRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(db *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CountUsers returns the total number of user accounts
func (r *DashboardRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.countRows(ctx, r.sb.Select("COUNT(*)").From("users"))
}

// CountCourses returns the total and published course counts
func (r *DashboardRepository) CountCourses(ctx context.Context) (total, published int64, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_published) FROM courses`
	if err := r.db.QueryRow(ctx, query).Scan(&total, &published); err != nil {
		logger.Error().Err(err).Msg("Error counting courses for dashboard")
		return 0, 0, fmt.Errorf("error counting courses: %w", err)
	}
	return total, published, nil
}

// EnrollmentsByStatus returns a status -> count map over all enrollments
func (r *DashboardRepository) EnrollmentsByStatus(ctx context.Context) (map[string]int64, error) {
	sql, args, err := r.sb.Select("status", "COUNT(*)").
		From("enrollments").
		GroupBy("status").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build enrollments by status query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying enrollments by status")
		return nil, fmt.Errorf("error querying enrollments by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{
		string(models.EnrollmentPending):   0,
		string(models.EnrollmentValidated): 0,
		string(models.EnrollmentApproved):  0,
		string(models.EnrollmentRejected):  0,
	}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment status count")
			return nil, fmt.Errorf("error scanning enrollment status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment status rows: %w", err)
	}

	return counts, nil
}

// TotalRevenue sums completed payments in the smallest currency unit
func (r *DashboardRepository) TotalRevenue(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COALESCE(SUM(amount), 0)").
		From("payments").
		Where(squirrel.Eq{"status": models.PaymentCompleted}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("failed to build revenue query: %w", err)
	}

	var revenue int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&revenue); err != nil {
		logger.Error().Err(err).Msg("Error querying total revenue")
		return 0, fmt.Errorf("error querying total revenue: %w", err)
	}

	return revenue, nil
}

// MonthlyEnrollments returns enrollments created per month for the last
// `months` months, oldest first
func (r *DashboardRepository) MonthlyEnrollments(ctx context.Context, months int) ([]dto.MonthlyCount, error) {
	query := `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*)
		FROM enrollments
		WHERE created_at >= date_trunc('month', NOW()) - ($1 - 1) * INTERVAL '1 month'
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.Query(ctx, query, months)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying monthly enrollments")
		return nil, fmt.Errorf("error querying monthly enrollments: %w", err)
	}
	defer rows.Close()

	series := []dto.MonthlyCount{}
	for rows.Next() {
		var point dto.MonthlyCount
		if err := rows.Scan(&point.Month, &point.Count); err != nil {
			logger.Error().Err(err).Msg("Error scanning monthly enrollment row")
			return nil, fmt.Errorf("error scanning monthly enrollment row: %w", err)
		}
		series = append(series, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly enrollment rows: %w", err)
	}

	return series, nil
}

func (r *DashboardRepository) countRows(ctx context.Context, builder squirrel.SelectBuilder) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error executing count query")
		return 0, fmt.Errorf("error counting rows: %w", err)
	}

	return count, nil
}
