package seed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/btrade/btrade-backend/internal/app/models"
	appRepos "github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/pkg/auth"
)

const (
	defaultAdminEmail    = "admin@btrade.local"
	defaultAdminPassword = "admin1234"
)

// CreateDefaultData creates the default admin account and a couple of
// sample courses when the database is empty. Intended for development
// environments; existing data is never overwritten.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	courseRepo := appRepos.NewCourseRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")

	exists, err := userRepo.EmailExists(ctx, defaultAdminEmail)
	if err != nil {
		return err
	}
	if exists {
		lgr.Debug().Msg("Default admin already present, skipping seed")
		return nil
	}

	hashed, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	admin := &appModels.User{
		Email:     defaultAdminEmail,
		Password:  hashed,
		FirstName: "Admin",
		LastName:  "User",
		RoleType:  appModels.RoleAdmin,
		IsActive:  true,
	}
	adminID, err := userRepo.CreateUser(ctx, admin)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin user")
		return err
	}
	lgr.Info().Int64("userID", adminID).Str("email", defaultAdminEmail).Msg("Default admin user created")

	now := time.Now()
	intro := "Introduction to order flow, market structure and risk management."
	advanced := "Advanced execution tactics for experienced traders."

	sampleCourses := []*appModels.Course{
		{
			Name:           "Trading Fundamentals",
			Description:    &intro,
			Price:          49900,
			Location:       "Bangkok",
			MaxSeats:       30,
			AvailableSeats: 30,
			StartDate:      now.AddDate(0, 0, 7),
			EndDate:        now.AddDate(0, 1, 7),
			CourseDate:     now.AddDate(0, 1, 14),
			IsPublished:    true,
			Tags:           []string{"beginner", "fundamentals"},
		},
		{
			Name:           "Advanced Execution Workshop",
			Description:    &advanced,
			Price:          129900,
			Location:       "Bangkok",
			MaxSeats:       15,
			AvailableSeats: 15,
			StartDate:      now.AddDate(0, 0, 14),
			EndDate:        now.AddDate(0, 2, 0),
			CourseDate:     now.AddDate(0, 2, 7),
			IsPublished:    false,
			Tags:           []string{"advanced", "execution"},
		},
	}

	for _, course := range sampleCourses {
		courseID, err := courseRepo.CreateCourse(ctx, course)
		if err != nil {
			lgr.Error().Err(err).Str("name", course.Name).Msg("Error creating sample course")
			return err
		}
		lgr.Info().Int64("courseID", courseID).Str("name", course.Name).Msg("Sample course created")
	}

	return nil
}
