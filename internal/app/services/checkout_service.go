package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/db"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/events"
	"github.com/btrade/btrade-backend/internal/pkg/metrics"
	"github.com/btrade/btrade-backend/internal/pkg/payment"
)

// PaymentProvider is the part of the checkout provider client the service
// depends on. Tests substitute a stub.
type PaymentProvider interface {
	CreateSession(ctx context.Context, params payment.CreateSessionParams) (*payment.Session, error)
	GetSession(ctx context.Context, sessionID string) (*payment.Session, error)
}

// Store slices of the repositories the checkout flow touches. The concrete
// repositories satisfy them; tests substitute stubs.
type checkoutPaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) (int64, error)
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	GetOpenPayment(ctx context.Context, userID, courseID int64) (*models.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status models.PaymentStatus) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, paymentID int64, status models.PaymentStatus) error
}

type checkoutCourseStore interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	DecrementAvailableSeatsTx(ctx context.Context, tx pgx.Tx, courseID int64) error
}

type checkoutEnrollmentStore interface {
	IsUserRegistered(ctx context.Context, userID, courseID int64) (bool, error)
	GetEnrollmentBySessionID(ctx context.Context, sessionID string) (*models.Enrollment, error)
	CreateEnrollmentTx(ctx context.Context, tx pgx.Tx, enrollment *models.Enrollment) (int64, error)
}

type checkoutTraderStore interface {
	GetTraderByUserID(ctx context.Context, userID int64) (*models.Trader, error)
}

type transactionRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// CheckoutConfig carries the provider-facing settings for session creation
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CheckoutService defines the interface for checkout and post-payment
// registration operations
type CheckoutService interface {
	CreateSession(ctx context.Context, userID, courseID int64) (*dto.CheckoutSessionResponse, error)
	GetSessionDetail(ctx context.Context, userID int64, sessionID string) (*dto.CheckoutSessionDetail, error)
	RegisterEnrollment(ctx context.Context, userID int64, sessionID string) (*dto.EnrollmentResponse, error)
}

// checkoutServiceImpl implements the CheckoutService interface
type checkoutServiceImpl struct {
	database       transactionRunner
	paymentRepo    checkoutPaymentStore
	courseRepo     checkoutCourseStore
	enrollmentRepo checkoutEnrollmentStore
	traderRepo     checkoutTraderStore
	provider       PaymentProvider
	config         CheckoutConfig
	broker         *events.Broker
	metrics        *metrics.Metrics
	dashboard      DashboardInvalidator
	logger         zerolog.Logger
}

// NewCheckoutService creates a new checkout service instance
func NewCheckoutService(
	database *db.PostgresDB,
	paymentRepo *repositories.PaymentRepository,
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	traderRepo *repositories.TraderRepository,
	provider PaymentProvider,
	config CheckoutConfig,
	broker *events.Broker,
	m *metrics.Metrics,
	dashboard DashboardInvalidator,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		database:       database,
		paymentRepo:    paymentRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		traderRepo:     traderRepo,
		provider:       provider,
		config:         config,
		broker:         broker,
		metrics:        m,
		dashboard:      dashboard,
		logger:         logger,
	}
}

// checkEligibility re-runs the registration check server-side. The catalog
// UI shows the same states, but the browser is not trusted.
func (s *checkoutServiceImpl) checkEligibility(ctx context.Context, userID int64, course *models.Course) error {
	alreadyRegistered, err := s.enrollmentRepo.IsUserRegistered(ctx, userID, course.ID)
	if err != nil {
		return err
	}

	switch state := RegistrationStateFor(course, models.RoleUser, alreadyRegistered, time.Now()); state {
	case models.RegistrationOpen:
		return nil
	case models.RegistrationAlreadyRegistered:
		return apperrors.ErrAlreadyRegistered
	case models.RegistrationSeatsExhausted:
		return apperrors.ErrSeatsExhausted
	default:
		return apperrors.ErrRegistrationNotOpen
	}
}

// CreateSession creates a hosted checkout session for a course. A verified
// trader profile is required. Creating a session twice for the same open
// checkout returns the existing session instead of a new one.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, userID, courseID int64) (*dto.CheckoutSessionResponse, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, apperrors.ErrCourseNotFound
	}

	trader, err := s.traderRepo.GetTraderByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !trader.Verified() {
		return nil, apperrors.ErrTraderNotVerified
	}

	if err := s.checkEligibility(ctx, userID, course); err != nil {
		return nil, err
	}

	// Reuse an open session for this user and course if one exists
	if existing, err := s.paymentRepo.GetOpenPayment(ctx, userID, courseID); err == nil {
		session, err := s.provider.GetSession(ctx, existing.SessionID)
		if err == nil && session.Status == payment.SessionStatusOpen {
			s.logger.Info().
				Int64("userID", userID).
				Int64("courseID", courseID).
				Str("sessionID", existing.SessionID).
				Msg("Reusing open checkout session")
			return &dto.CheckoutSessionResponse{SessionID: session.ID, URL: session.URL}, nil
		}
		// The provider no longer honors it; mark it failed and start over
		if err := s.paymentRepo.UpdateStatus(ctx, existing.ID, models.PaymentFailed); err != nil {
			s.logger.Warn().Err(err).Int64("paymentID", existing.ID).Msg("Failed to mark stale session failed")
		}
	} else if !errors.Is(err, apperrors.ErrPaymentNotFound) {
		return nil, err
	}

	session, err := s.provider.CreateSession(ctx, payment.CreateSessionParams{
		Amount:      course.Price,
		Currency:    s.config.Currency,
		ProductName: course.Name,
		Reference:   fmt.Sprintf("user:%d:course:%d", userID, courseID),
		SuccessURL:  s.config.SuccessURL,
		CancelURL:   s.config.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	record := &models.Payment{
		SessionID: session.ID,
		UserID:    userID,
		CourseID:  courseID,
		Amount:    course.Price,
		Status:    models.PaymentCreated,
	}
	if _, err := s.paymentRepo.CreatePayment(ctx, record); err != nil {
		return nil, err
	}

	s.metrics.CheckoutSessionsTotal.Inc()
	s.logger.Info().
		Int64("userID", userID).
		Int64("courseID", courseID).
		Str("sessionID", session.ID).
		Msg("Checkout session created")

	return &dto.CheckoutSessionResponse{SessionID: session.ID, URL: session.URL}, nil
}

// GetSessionDetail serves the post-payment success page: who the session
// belongs to, what it bought and where the payment stands
func (s *checkoutServiceImpl) GetSessionDetail(ctx context.Context, userID int64, sessionID string) (*dto.CheckoutSessionDetail, error) {
	record, err := s.paymentRepo.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, apperrors.ErrPaymentNotOwned
	}

	providerStatus := ""
	if session, err := s.provider.GetSession(ctx, sessionID); err == nil {
		providerStatus = session.Status
	} else {
		s.logger.Warn().Err(err).Str("sessionID", sessionID).Msg("Failed to fetch provider session status")
	}

	return &dto.CheckoutSessionDetail{
		SessionID:      record.SessionID,
		UserID:         record.UserID,
		CourseID:       record.CourseID,
		Amount:         record.Amount,
		PaymentStatus:  record.Status,
		ProviderStatus: providerStatus,
	}, nil
}

// RegisterEnrollment completes a paid checkout session: it takes a seat,
// creates the enrollment and marks the payment completed, atomically.
// Re-submitting a consumed session returns the existing enrollment.
func (s *checkoutServiceImpl) RegisterEnrollment(ctx context.Context, userID int64, sessionID string) (*dto.EnrollmentResponse, error) {
	record, err := s.paymentRepo.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, apperrors.ErrPaymentNotOwned
	}

	// Already consumed: hand back the enrollment it produced
	if record.Status == models.PaymentCompleted {
		enrollment, err := s.enrollmentRepo.GetEnrollmentBySessionID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return dto.NewEnrollmentResponse(enrollment), nil
	}
	if record.Status == models.PaymentFailed {
		return nil, apperrors.ErrPaymentUnpaid
	}

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != payment.SessionStatusPaid {
		return nil, apperrors.ErrPaymentUnpaid
	}

	enrollment := &models.Enrollment{
		UserID:            userID,
		CourseID:          record.CourseID,
		Status:            models.EnrollmentPending,
		CheckoutSessionID: sessionID,
	}

	err = s.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.courseRepo.DecrementAvailableSeatsTx(ctx, tx, record.CourseID); err != nil {
			return err
		}
		id, err := s.enrollmentRepo.CreateEnrollmentTx(ctx, tx, enrollment)
		if err != nil {
			return err
		}
		enrollment.ID = id
		return s.paymentRepo.UpdateStatusTx(ctx, tx, record.ID, models.PaymentCompleted)
	})
	if err != nil {
		// The course filled up between payment and completion. The session
		// was paid but cannot be honored, so the payment must not stay
		// reusable by CreateSession.
		if errors.Is(err, apperrors.ErrSeatsExhausted) {
			if markErr := s.paymentRepo.UpdateStatus(ctx, record.ID, models.PaymentFailed); markErr != nil {
				s.logger.Error().Err(markErr).
					Int64("paymentID", record.ID).
					Str("sessionID", sessionID).
					Msg("Failed to mark payment failed after seat exhaustion")
			}
		}
		return nil, err
	}

	s.metrics.EnrollmentsTotal.Inc()
	s.dashboard.InvalidateSummary(ctx)
	s.broker.Publish(ctx, events.EnrollmentEvent{
		Action:       events.ActionRegistered,
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		UserID:       enrollment.UserID,
		Status:       string(models.EnrollmentPending),
	})

	s.logger.Info().
		Int64("userID", userID).
		Int64("courseID", record.CourseID).
		Int64("enrollmentID", enrollment.ID).
		Str("sessionID", sessionID).
		Msg("Enrollment registered after payment")

	return dto.NewEnrollmentResponse(enrollment), nil
}
