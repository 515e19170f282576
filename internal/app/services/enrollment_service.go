package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/db"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/email"
	"github.com/btrade/btrade-backend/internal/pkg/events"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
	"github.com/btrade/btrade-backend/internal/pkg/metrics"
)

const codeValidity = 48 * time.Hour

// Enrollment admin actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// DashboardInvalidator drops cached dashboard aggregates after a mutation
type DashboardInvalidator interface {
	InvalidateSummary(ctx context.Context)
}

// Store slices of the repositories the enrollment flow touches. The concrete
// repositories satisfy them; tests substitute stubs.
type enrollmentStore interface {
	GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, status models.EnrollmentStatus, offset, limit int) ([]*models.Enrollment, int64, error)
	ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*models.Enrollment, error)
	UpdateStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, enrollmentID int64, status models.EnrollmentStatus) error
}

type enrollmentCodeStore interface {
	CreateCode(ctx context.Context, code *models.EnrollmentCode) (int64, error)
	GetByCode(ctx context.Context, code string) (*models.EnrollmentCode, error)
	MarkUsedTx(ctx context.Context, tx pgx.Tx, codeID int64) error
}

type courseSeatStore interface {
	ReleaseSeat(ctx context.Context, courseID int64) error
}

type traderStore interface {
	GetTraderByUserID(ctx context.Context, userID int64) (*models.Trader, error)
	MarkVerified(ctx context.Context, userID int64) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.EnrollmentEvent)
}

// EnrollmentService defines the interface for enrollment operations
type EnrollmentService interface {
	VerifyID(ctx context.Context, userID int64, idCardNumber string) error
	ListEnrollments(ctx context.Context, status models.EnrollmentStatus, page, pageSize int) ([]*dto.EnrollmentResponse, int64, error)
	ListMyEnrollments(ctx context.Context, userID int64) ([]*dto.EnrollmentResponse, error)
	HandleAction(ctx context.Context, enrollmentID int64, action string) (*dto.EnrollmentResponse, error)
	GenerateCode(ctx context.Context, enrollmentID int64) (*dto.GenerateCodeResponse, error)
	ValidateCode(ctx context.Context, userID int64, code string) (*dto.EnrollmentResponse, error)
}

// enrollmentServiceImpl implements the EnrollmentService interface
type enrollmentServiceImpl struct {
	database       transactionRunner
	enrollmentRepo enrollmentStore
	codeRepo       enrollmentCodeStore
	courseRepo     courseSeatStore
	traderRepo     traderStore
	broker         eventPublisher
	emailService   email.EmailService
	metrics        *metrics.Metrics
	dashboard      DashboardInvalidator
	logger         zerolog.Logger
}

// NewEnrollmentService creates a new enrollment service instance
func NewEnrollmentService(
	database *db.PostgresDB,
	enrollmentRepo *repositories.EnrollmentRepository,
	codeRepo *repositories.EnrollmentCodeRepository,
	courseRepo *repositories.CourseRepository,
	traderRepo *repositories.TraderRepository,
	broker *events.Broker,
	emailService email.EmailService,
	m *metrics.Metrics,
	dashboard DashboardInvalidator,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentServiceImpl{
		database:       database,
		enrollmentRepo: enrollmentRepo,
		codeRepo:       codeRepo,
		courseRepo:     courseRepo,
		traderRepo:     traderRepo,
		broker:         broker,
		emailService:   emailService,
		metrics:        m,
		dashboard:      dashboard,
		logger:         logger,
	}
}

// VerifyID checks the submitted 13-digit ID card number against the caller's
// trader profile. The error codes returned here are part of the wire contract
// consumed by the registration dialog.
func (s *enrollmentServiceImpl) VerifyID(ctx context.Context, userID int64, idCardNumber string) error {
	if !idCardRegex.MatchString(idCardNumber) {
		s.metrics.VerificationFailedTotal.WithLabelValues(string(dto.ErrorCodeIDCardInvalid)).Inc()
		return apperrors.NewCustomError(apperrors.ErrIDCardInvalid, "ID card number must be exactly 13 digits").
			WithCode(string(dto.ErrorCodeIDCardInvalid))
	}

	trader, err := s.traderRepo.GetTraderByUserID(ctx, userID)
	if err != nil {
		if err == apperrors.ErrTraderNotFound {
			s.metrics.VerificationFailedTotal.WithLabelValues(string(dto.ErrorCodeTraderMissing)).Inc()
			return apperrors.NewCustomError(apperrors.ErrTraderNotFound, "No trader profile linked to this account").
				WithCode(string(dto.ErrorCodeTraderMissing))
		}
		return err
	}

	if trader.IDCardNumber != idCardNumber {
		s.metrics.VerificationFailedTotal.WithLabelValues(string(dto.ErrorCodeIDCardMismatch)).Inc()
		s.logger.Warn().Int64("userID", userID).Msg("ID card verification mismatch")
		return apperrors.NewCustomError(apperrors.ErrIDCardMismatch, "ID card number does not match the trader profile").
			WithCode(string(dto.ErrorCodeIDCardMismatch))
	}

	if !trader.Verified() {
		if err := s.traderRepo.MarkVerified(ctx, userID); err != nil {
			return err
		}
	}

	s.logger.Info().Int64("userID", userID).Msg("ID card verified")
	return nil
}

// ListEnrollments retrieves enrollments for admin review, optionally
// filtered by status
func (s *enrollmentServiceImpl) ListEnrollments(ctx context.Context, status models.EnrollmentStatus, page, pageSize int) ([]*dto.EnrollmentResponse, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	enrollments, total, err := s.enrollmentRepo.ListEnrollments(ctx, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, total, nil
}

// ListMyEnrollments retrieves the caller's enrollments
func (s *enrollmentServiceImpl) ListMyEnrollments(ctx context.Context, userID int64) ([]*dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollmentRepo.ListEnrollmentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}

// HandleAction applies an admin approve/reject decision. Rejecting returns
// the seat to the course. Connected admin consoles are notified so their
// tables re-fetch.
func (s *enrollmentServiceImpl) HandleAction(ctx context.Context, enrollmentID int64, action string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollmentRepo.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.Status != models.EnrollmentPending && enrollment.Status != models.EnrollmentValidated {
		return nil, apperrors.ErrEnrollmentNotActionable
	}

	var newStatus models.EnrollmentStatus
	var eventAction string
	switch action {
	case ActionApprove:
		newStatus = models.EnrollmentApproved
		eventAction = events.ActionApproved
	case ActionReject:
		newStatus = models.EnrollmentRejected
		eventAction = events.ActionRejected
	default:
		return nil, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidationFailed, action)
	}

	if err := s.enrollmentRepo.UpdateStatus(ctx, enrollmentID, newStatus); err != nil {
		return nil, err
	}
	enrollment.Status = newStatus

	if newStatus == models.EnrollmentRejected {
		if err := s.courseRepo.ReleaseSeat(ctx, enrollment.CourseID); err != nil {
			s.logger.Error().Err(err).
				Int64("enrollmentID", enrollmentID).
				Int64("courseID", enrollment.CourseID).
				Msg("Failed to release seat after rejection")
		}
	}

	s.metrics.EnrollmentActionsTotal.WithLabelValues(action).Inc()
	s.dashboard.InvalidateSummary(ctx)
	s.broker.Publish(ctx, events.EnrollmentEvent{
		Action:       eventAction,
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		UserID:       enrollment.UserID,
		Status:       string(newStatus),
	})

	s.logger.Info().
		Int64("enrollmentID", enrollmentID).
		Str("action", action).
		Msg("Enrollment action applied")

	return dto.NewEnrollmentResponse(enrollment), nil
}

// GenerateCode creates a confirmation code for a pending enrollment and
// emails it to the student
func (s *enrollmentServiceImpl) GenerateCode(ctx context.Context, enrollmentID int64) (*dto.GenerateCodeResponse, error) {
	enrollment, err := s.enrollmentRepo.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.Status != models.EnrollmentPending {
		return nil, apperrors.ErrEnrollmentNotActionable
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation code: %w", err)
	}

	enrollmentCode := &models.EnrollmentCode{
		EnrollmentID: enrollmentID,
		Code:         code,
		ExpiresAt:    time.Now().Add(codeValidity),
	}
	if _, err := s.codeRepo.CreateCode(ctx, enrollmentCode); err != nil {
		return nil, err
	}

	if enrollment.User != nil && enrollment.Course != nil {
		toEmail := enrollment.User.Email
		toName := enrollment.User.FirstName
		courseName := enrollment.Course.Name
		go func() {
			if err := s.emailService.SendEnrollmentCodeEmail(toEmail, toName, courseName, code); err != nil {
				s.logger.Warn().Err(err).Int64("enrollmentID", enrollmentID).Msg("Failed to send enrollment code email")
			}
		}()
	}

	s.logger.Info().Int64("enrollmentID", enrollmentID).Msg("Confirmation code generated")
	return &dto.GenerateCodeResponse{
		Code:      code,
		ExpiresAt: enrollmentCode.ExpiresAt,
	}, nil
}

// ValidateCode consumes a confirmation code submitted by the enrolled
// student, moving the enrollment from PENDING to VALIDATED
func (s *enrollmentServiceImpl) ValidateCode(ctx context.Context, userID int64, code string) (*dto.EnrollmentResponse, error) {
	enrollmentCode, err := s.codeRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if enrollmentCode.UsedAt != nil {
		return nil, apperrors.ErrCodeUsed
	}
	if enrollmentCode.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.ErrCodeInvalid
	}

	enrollment, err := s.enrollmentRepo.GetEnrollmentByID(ctx, enrollmentCode.EnrollmentID)
	if err != nil {
		return nil, err
	}

	// The code is only valid in the hands of the enrolled student
	if enrollment.UserID != userID {
		return nil, apperrors.ErrCodeInvalid
	}
	if enrollment.Status != models.EnrollmentPending {
		return nil, apperrors.ErrEnrollmentNotActionable
	}

	// Consuming the code and advancing the enrollment must not come apart:
	// a consumed code with a still-pending enrollment strands the student.
	err = s.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.codeRepo.MarkUsedTx(ctx, tx, enrollmentCode.ID); err != nil {
			return err
		}
		return s.enrollmentRepo.UpdateStatusTx(ctx, tx, enrollment.ID, models.EnrollmentValidated)
	})
	if err != nil {
		return nil, err
	}
	enrollment.Status = models.EnrollmentValidated

	s.dashboard.InvalidateSummary(ctx)
	s.broker.Publish(ctx, events.EnrollmentEvent{
		Action:       events.ActionValidated,
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		UserID:       enrollment.UserID,
		Status:       string(models.EnrollmentValidated),
	})

	s.logger.Info().Int64("enrollmentID", enrollment.ID).Msg("Enrollment validated by confirmation code")
	return dto.NewEnrollmentResponse(enrollment), nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateConfirmationCode produces an 8-character code from an alphabet
// without easily confused characters
func generateConfirmationCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
