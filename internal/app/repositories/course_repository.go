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

// CourseRepository handles course database operations
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var courseColumns = []string{
	"id", "name", "description", "price", "location",
	"max_seats", "available_seats", "start_date", "end_date", "course_date",
	"is_published", "tags", "created_at", "updated_at",
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(
		&course.ID, &course.Name, &course.Description, &course.Price, &course.Location,
		&course.MaxSeats, &course.AvailableSeats, &course.StartDate, &course.EndDate, &course.CourseDate,
		&course.IsPublished, &course.Tags, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// CreateCourse creates a new course and returns the new ID
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("name", "description", "price", "location", "max_seats", "available_seats",
			"start_date", "end_date", "course_date", "is_published", "tags").
		Values(course.Name, course.Description, course.Price, course.Location,
			course.MaxSeats, course.AvailableSeats, course.StartDate, course.EndDate,
			course.CourseDate, course.IsPublished, course.Tags).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return id, nil
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get course by ID SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}

	return course, nil
}

// ListCourses retrieves courses with pagination. When publishedOnly is set,
// unpublished courses are filtered out.
func (r *CourseRepository) ListCourses(ctx context.Context, publishedOnly bool, tag string, offset, limit int) ([]*models.Course, int64, error) {
	countBuilder := r.sb.Select("COUNT(*)").From("courses")
	listBuilder := r.sb.Select(courseColumns...).From("courses")

	if publishedOnly {
		countBuilder = countBuilder.Where(squirrel.Eq{"is_published": true})
		listBuilder = listBuilder.Where(squirrel.Eq{"is_published": true})
	}

	if tag != "" {
		countBuilder = countBuilder.Where(squirrel.Expr("? = ANY(tags)", tag))
		listBuilder = listBuilder.Where(squirrel.Expr("? = ANY(tags)", tag))
	}

	countSql, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	sql, args, err := listBuilder.
		OrderBy("course_date ASC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list courses SQL")
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, 0, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row during list")
			return nil, 0, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, 0, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, total, nil
}

// UpdateCourse updates an existing course
func (r *CourseRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"name":            course.Name,
			"description":     course.Description,
			"price":           course.Price,
			"location":        course.Location,
			"max_seats":       course.MaxSeats,
			"available_seats": course.AvailableSeats,
			"start_date":      course.StartDate,
			"end_date":        course.EndDate,
			"course_date":     course.CourseDate,
			"is_published":    course.IsPublished,
			"tags":            course.Tags,
			"updated_at":      time.Now(),
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update course SQL")
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// DeleteCourse deletes a course by ID. Courses with enrollments cannot be
// deleted.
func (r *CourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	var hasEnrollments bool
	checkSql, checkArgs, err := r.sb.Select("1").
		From("enrollments").
		Where(squirrel.Eq{"course_id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building check enrollments SQL")
		return fmt.Errorf("failed to build check enrollments query: %w", err)
	}

	err = r.db.QueryRow(ctx, checkSql, checkArgs...).Scan(&hasEnrollments)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error checking course enrollments")
		return fmt.Errorf("error checking course enrollments: %w", err)
	}

	if hasEnrollments {
		return apperrors.ErrCourseHasEnrollments
	}

	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete course SQL")
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// DecrementAvailableSeatsTx takes one seat within a transaction. The guard
// on available_seats makes concurrent registrations race-safe; losing the
// race surfaces as ErrSeatsExhausted.
func (r *CourseRepository) DecrementAvailableSeatsTx(ctx context.Context, tx pgx.Tx, courseID int64) error {
	sql, args, err := r.sb.Update("courses").
		Set("available_seats", squirrel.Expr("available_seats - 1")).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": courseID}).
		Where(squirrel.Gt{"available_seats": 0}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building decrement seats SQL")
		return fmt.Errorf("failed to build decrement seats query: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing decrement seats query")
		return fmt.Errorf("error decrementing available seats: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSeatsExhausted
	}

	return nil
}

// ReleaseSeat returns one seat to the pool, capped at max_seats
func (r *CourseRepository) ReleaseSeat(ctx context.Context, courseID int64) error {
	sql, args, err := r.sb.Update("courses").
		Set("available_seats", squirrel.Expr("available_seats + 1")).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": courseID}).
		Where(squirrel.Expr("available_seats < max_seats")).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building release seat SQL")
		return fmt.Errorf("failed to build release seat query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing release seat query")
		return fmt.Errorf("error releasing seat: %w", err)
	}

	return nil
}
