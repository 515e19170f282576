package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository               *UserRepository
	TraderRepository             *TraderRepository
	CourseRepository             *CourseRepository
	EnrollmentRepository         *EnrollmentRepository
	EnrollmentCodeRepository     *EnrollmentCodeRepository
	PaymentRepository            *PaymentRepository
	TokenRepository              *TokenRepository
	PasswordResetTokenRepository *PasswordResetTokenRepository
	DashboardRepository          *DashboardRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:               NewUserRepository(db),
		TraderRepository:             NewTraderRepository(db),
		CourseRepository:             NewCourseRepository(db),
		EnrollmentRepository:         NewEnrollmentRepository(db),
		EnrollmentCodeRepository:     NewEnrollmentCodeRepository(db),
		PaymentRepository:            NewPaymentRepository(db),
		TokenRepository:              NewTokenRepository(db),
		PasswordResetTokenRepository: NewPasswordResetTokenRepository(db),
		DashboardRepository:          NewDashboardRepository(db),
	}
}
