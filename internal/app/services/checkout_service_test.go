package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/db"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/payment"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

type stubCheckoutPaymentStore struct {
	record         *models.Payment
	statusUpdates  map[int64]models.PaymentStatus
	txStatusCalled bool
}

func (s *stubCheckoutPaymentStore) CreatePayment(ctx context.Context, p *models.Payment) (int64, error) {
	return 1, nil
}

func (s *stubCheckoutPaymentStore) GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	if s.record == nil || s.record.SessionID != sessionID {
		return nil, apperrors.ErrPaymentNotFound
	}
	return s.record, nil
}

func (s *stubCheckoutPaymentStore) GetOpenPayment(ctx context.Context, userID, courseID int64) (*models.Payment, error) {
	return nil, apperrors.ErrPaymentNotFound
}

func (s *stubCheckoutPaymentStore) UpdateStatus(ctx context.Context, paymentID int64, status models.PaymentStatus) error {
	if s.statusUpdates == nil {
		s.statusUpdates = make(map[int64]models.PaymentStatus)
	}
	s.statusUpdates[paymentID] = status
	return nil
}

func (s *stubCheckoutPaymentStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, paymentID int64, status models.PaymentStatus) error {
	s.txStatusCalled = true
	return nil
}

type stubCheckoutCourseStore struct {
	decrementErr error
}

func (s *stubCheckoutCourseStore) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	return nil, apperrors.ErrCourseNotFound
}

func (s *stubCheckoutCourseStore) DecrementAvailableSeatsTx(ctx context.Context, tx pgx.Tx, courseID int64) error {
	return s.decrementErr
}

type stubCheckoutEnrollmentStore struct {
	existing *models.Enrollment
}

func (s *stubCheckoutEnrollmentStore) IsUserRegistered(ctx context.Context, userID, courseID int64) (bool, error) {
	return false, nil
}

func (s *stubCheckoutEnrollmentStore) GetEnrollmentBySessionID(ctx context.Context, sessionID string) (*models.Enrollment, error) {
	if s.existing == nil {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return s.existing, nil
}

func (s *stubCheckoutEnrollmentStore) CreateEnrollmentTx(ctx context.Context, tx pgx.Tx, enrollment *models.Enrollment) (int64, error) {
	return 42, nil
}

type stubProvider struct {
	session  *payment.Session
	getCalls int
}

func (s *stubProvider) CreateSession(ctx context.Context, params payment.CreateSessionParams) (*payment.Session, error) {
	return s.session, nil
}

func (s *stubProvider) GetSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	s.getCalls++
	if s.session == nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return s.session, nil
}

func newCheckoutServiceForTest(
	payments *stubCheckoutPaymentStore,
	courses *stubCheckoutCourseStore,
	enrollments *stubCheckoutEnrollmentStore,
	provider *stubProvider,
) *checkoutServiceImpl {
	return &checkoutServiceImpl{
		database:       stubTxRunner{},
		paymentRepo:    payments,
		courseRepo:     courses,
		enrollmentRepo: enrollments,
		provider:       provider,
		logger:         zerolog.Nop(),
	}
}

func TestRegisterEnrollmentSeatExhaustionMarksPaymentFailed(t *testing.T) {
	payments := &stubCheckoutPaymentStore{
		record: &models.Payment{ID: 5, SessionID: "cs_full", UserID: 11, CourseID: 3, Status: models.PaymentCreated},
	}
	courses := &stubCheckoutCourseStore{decrementErr: apperrors.ErrSeatsExhausted}
	provider := &stubProvider{session: &payment.Session{ID: "cs_full", Status: payment.SessionStatusPaid}}
	svc := newCheckoutServiceForTest(payments, courses, &stubCheckoutEnrollmentStore{}, provider)

	_, err := svc.RegisterEnrollment(context.Background(), 11, "cs_full")

	require.ErrorIs(t, err, apperrors.ErrSeatsExhausted)
	assert.Equal(t, models.PaymentFailed, payments.statusUpdates[5],
		"a paid session for a full course must not stay reusable")
	assert.False(t, payments.txStatusCalled)
}

func TestRegisterEnrollmentConsumedSessionIsIdempotent(t *testing.T) {
	payments := &stubCheckoutPaymentStore{
		record: &models.Payment{ID: 5, SessionID: "cs_done", UserID: 11, CourseID: 3, Status: models.PaymentCompleted},
	}
	enrollments := &stubCheckoutEnrollmentStore{
		existing: &models.Enrollment{ID: 42, UserID: 11, CourseID: 3, Status: models.EnrollmentPending},
	}
	provider := &stubProvider{}
	svc := newCheckoutServiceForTest(payments, &stubCheckoutCourseStore{}, enrollments, provider)

	resp, err := svc.RegisterEnrollment(context.Background(), 11, "cs_done")

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Zero(t, provider.getCalls, "a consumed session resolves locally")
}

func TestRegisterEnrollmentRejectsUnpaidSession(t *testing.T) {
	payments := &stubCheckoutPaymentStore{
		record: &models.Payment{ID: 5, SessionID: "cs_open", UserID: 11, CourseID: 3, Status: models.PaymentCreated},
	}
	provider := &stubProvider{session: &payment.Session{ID: "cs_open", Status: payment.SessionStatusOpen}}
	svc := newCheckoutServiceForTest(payments, &stubCheckoutCourseStore{}, &stubCheckoutEnrollmentStore{}, provider)

	_, err := svc.RegisterEnrollment(context.Background(), 11, "cs_open")

	require.ErrorIs(t, err, apperrors.ErrPaymentUnpaid)
	assert.Empty(t, payments.statusUpdates)
}

func TestRegisterEnrollmentRejectsForeignSession(t *testing.T) {
	payments := &stubCheckoutPaymentStore{
		record: &models.Payment{ID: 5, SessionID: "cs_owned", UserID: 11, CourseID: 3, Status: models.PaymentCreated},
	}
	svc := newCheckoutServiceForTest(payments, &stubCheckoutCourseStore{}, &stubCheckoutEnrollmentStore{}, &stubProvider{})

	_, err := svc.RegisterEnrollment(context.Background(), 99, "cs_owned")

	require.ErrorIs(t, err, apperrors.ErrPaymentNotOwned)
}
