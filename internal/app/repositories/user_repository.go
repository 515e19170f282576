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

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name",
	"role_type", "is_active", "last_login_at", "created_at", "updated_at",
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&user.RoleType, &user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user and returns the new ID
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role_type", "is_active").
		Values(user.Email, user.Password, user.FirstName, user.LastName, user.RoleType, user.IsActive).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return id, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by ID SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", id).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get user by email SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("email", email).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user by email: %w", err)
	}

	return user, nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Prefix("SELECT EXISTS (").Suffix(")").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building email exists SQL")
		return false, fmt.Errorf("failed to build email existence query: %w", err)
	}

	var exists bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Str("email", email).Msg("Error checking email existence")
		return false, fmt.Errorf("error checking email existence: %w", err)
	}

	return exists, nil
}

// ListUsers retrieves users with pagination, ordered by creation time
func (r *UserRepository) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	countSql, countArgs, err := r.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	sql, args, err := r.sb.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, 0, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning user row during list")
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating user rows")
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, total, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, userID int64, role models.RoleType) error {
	return r.updateUserFields(ctx, userID, map[string]interface{}{"role_type": role})
}

// UpdateActive enables or disables a user account
func (r *UserRepository) UpdateActive(ctx context.Context, userID int64, isActive bool) error {
	return r.updateUserFields(ctx, userID, map[string]interface{}{"is_active": isActive})
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.updateUserFields(ctx, userID, map[string]interface{}{"password": passwordHash})
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	return r.updateUserFields(ctx, userID, map[string]interface{}{"last_login_at": time.Now()})
}

func (r *UserRepository) updateUserFields(ctx context.Context, userID int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	sql, args, err := r.sb.Update("users").
		SetMap(fields).
		Where(squirrel.Eq{"id": userID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// DeleteUser deletes a user by ID
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete user SQL")
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}
