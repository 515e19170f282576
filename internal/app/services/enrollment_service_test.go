package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/db"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/events"
	"github.com/btrade/btrade-backend/internal/pkg/metrics"
)

func TestVerifyIDRejectsMalformedNumbers(t *testing.T) {
	s := &enrollmentServiceImpl{
		metrics: metrics.New(prometheus.NewRegistry()),
		logger:  zerolog.Nop(),
	}

	tests := []struct {
		name         string
		idCardNumber string
	}{
		{name: "too short", idCardNumber: "123456789012"},
		{name: "too long", idCardNumber: "12345678901234"},
		{name: "contains letters", idCardNumber: "12345abc90123"},
		{name: "empty", idCardNumber: ""},
		{name: "with dashes", idCardNumber: "1-2345-67890-12-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.VerifyID(context.Background(), 1, tt.idCardNumber)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrIDCardInvalid)

			var customErr *apperrors.CustomError
			require.True(t, errors.As(err, &customErr))
			assert.Equal(t, string(dto.ErrorCodeIDCardInvalid), customErr.Code)
		})
	}
}

func TestGenerateConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateConfirmationCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, char := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, char), "unexpected character %q", char)
		}
		seen[code] = true
	}
	// With a 32-character alphabet, 50 draws should essentially never collide
	assert.Greater(t, len(seen), 45)
}

// recordingTxRunner tracks whether writes happen inside the transaction
// callback, so rollback covers them with a real database.
type recordingTxRunner struct {
	inTx bool
}

func (r *recordingTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	r.inTx = true
	defer func() { r.inTx = false }()
	return fn(ctx, nil)
}

type stubEnrollmentStore struct {
	enrollment      *models.Enrollment
	updateErr       error
	updatedTo       models.EnrollmentStatus
	updatedInsideTx bool
	runner          *recordingTxRunner
}

func (s *stubEnrollmentStore) GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if s.enrollment == nil || s.enrollment.ID != id {
		return nil, apperrors.ErrEnrollmentNotFound
	}
	return s.enrollment, nil
}

func (s *stubEnrollmentStore) ListEnrollments(ctx context.Context, status models.EnrollmentStatus, offset, limit int) ([]*models.Enrollment, int64, error) {
	return nil, 0, nil
}

func (s *stubEnrollmentStore) ListEnrollmentsByUser(ctx context.Context, userID int64) ([]*models.Enrollment, error) {
	return nil, nil
}

func (s *stubEnrollmentStore) UpdateStatus(ctx context.Context, enrollmentID int64, status models.EnrollmentStatus) error {
	return nil
}

func (s *stubEnrollmentStore) UpdateStatusTx(ctx context.Context, tx pgx.Tx, enrollmentID int64, status models.EnrollmentStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedTo = status
	s.updatedInsideTx = s.runner.inTx
	return nil
}

type stubCodeStore struct {
	code           *models.EnrollmentCode
	marked         bool
	markedInsideTx bool
	runner         *recordingTxRunner
}

func (s *stubCodeStore) CreateCode(ctx context.Context, code *models.EnrollmentCode) (int64, error) {
	return 1, nil
}

func (s *stubCodeStore) GetByCode(ctx context.Context, code string) (*models.EnrollmentCode, error) {
	if s.code == nil || s.code.Code != code {
		return nil, apperrors.ErrCodeInvalid
	}
	return s.code, nil
}

func (s *stubCodeStore) MarkUsedTx(ctx context.Context, tx pgx.Tx, codeID int64) error {
	s.marked = true
	s.markedInsideTx = s.runner.inTx
	return nil
}

type stubPublisher struct {
	published []events.EnrollmentEvent
}

func (s *stubPublisher) Publish(ctx context.Context, event events.EnrollmentEvent) {
	s.published = append(s.published, event)
}

type stubInvalidator struct{}

func (stubInvalidator) InvalidateSummary(ctx context.Context) {}

func newValidateCodeFixture(updateErr error) (*enrollmentServiceImpl, *stubEnrollmentStore, *stubCodeStore, *stubPublisher) {
	runner := &recordingTxRunner{}
	enrollments := &stubEnrollmentStore{
		enrollment: &models.Enrollment{ID: 7, UserID: 11, CourseID: 3, Status: models.EnrollmentPending},
		updateErr:  updateErr,
		runner:     runner,
	}
	codes := &stubCodeStore{
		code: &models.EnrollmentCode{
			ID:           20,
			EnrollmentID: 7,
			Code:         "GOODCODE",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
		runner: runner,
	}
	publisher := &stubPublisher{}
	svc := &enrollmentServiceImpl{
		database:       runner,
		enrollmentRepo: enrollments,
		codeRepo:       codes,
		broker:         publisher,
		dashboard:      stubInvalidator{},
		logger:         zerolog.Nop(),
	}
	return svc, enrollments, codes, publisher
}

func TestValidateCodeConsumesCodeTransactionally(t *testing.T) {
	svc, enrollments, codes, publisher := newValidateCodeFixture(nil)

	resp, err := svc.ValidateCode(context.Background(), 11, "GOODCODE")

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentValidated, resp.Status)
	assert.Equal(t, models.EnrollmentValidated, enrollments.updatedTo)

	// Both writes must share the transaction so a failure rolls back the
	// code consumption along with the status change.
	assert.True(t, codes.markedInsideTx)
	assert.True(t, enrollments.updatedInsideTx)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.ActionValidated, publisher.published[0].Action)
}

func TestValidateCodeStatusFailureDoesNotStrandStudent(t *testing.T) {
	svc, _, codes, publisher := newValidateCodeFixture(assert.AnError)

	_, err := svc.ValidateCode(context.Background(), 11, "GOODCODE")

	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, codes.markedInsideTx, "code consumption must sit inside the failed transaction")
	assert.Empty(t, publisher.published)
}

func TestValidateCodeRejectsForeignUser(t *testing.T) {
	svc, _, codes, _ := newValidateCodeFixture(nil)

	_, err := svc.ValidateCode(context.Background(), 99, "GOODCODE")

	require.ErrorIs(t, err, apperrors.ErrCodeInvalid)
	assert.False(t, codes.marked)
}
