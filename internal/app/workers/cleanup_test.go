package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefreshTokenStore struct {
	deleted int64
	err     error
}

func (s *stubRefreshTokenStore) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.deleted, s.err
}

type stubResetTokenStore struct {
	deleted int64
	err     error
}

func (s *stubResetTokenStore) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	return s.deleted, s.err
}

type stubCodeStore struct {
	deleted int64
	err     error
}

func (s *stubCodeStore) DeleteExpiredCodes(ctx context.Context) (int64, error) {
	return s.deleted, s.err
}

type stubPaymentStore struct {
	deleted   int64
	err       error
	olderThan time.Time
}

func (s *stubPaymentStore) DeleteStalePayments(ctx context.Context, olderThan time.Time) (int64, error) {
	s.olderThan = olderThan
	return s.deleted, s.err
}

func newTestWorker(t *testing.T, refresh *stubRefreshTokenStore, reset *stubResetTokenStore, codes *stubCodeStore, payments *stubPaymentStore, opts ...CleanupOption) *CleanupWorker {
	t.Helper()
	w, err := NewCleanupWorker(refresh, reset, codes, payments, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return w
}

func TestNewCleanupWorkerRequiresStores(t *testing.T) {
	_, err := NewCleanupWorker(nil, &stubResetTokenStore{}, &stubCodeStore{}, &stubPaymentStore{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestRunOnceCountsDeletions(t *testing.T) {
	refresh := &stubRefreshTokenStore{deleted: 3}
	reset := &stubResetTokenStore{deleted: 2}
	codes := &stubCodeStore{deleted: 5}
	payments := &stubPaymentStore{deleted: 1}

	w := newTestWorker(t, refresh, reset, codes, payments)

	result, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.RefreshTokens)
	assert.Equal(t, int64(2), result.PasswordResetTokens)
	assert.Equal(t, int64(5), result.EnrollmentCodes)
	assert.Equal(t, int64(1), result.StalePayments)
}

func TestRunOnceStalePaymentCutoff(t *testing.T) {
	payments := &stubPaymentStore{}
	w := newTestWorker(t, &stubRefreshTokenStore{}, &stubResetTokenStore{}, &stubCodeStore{}, payments,
		WithStalePaymentAge(48*time.Hour))

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	wantCutoff := time.Now().Add(-48 * time.Hour)
	assert.WithinDuration(t, wantCutoff, payments.olderThan, time.Minute)
}

func TestRunOncePartialFailure(t *testing.T) {
	refresh := &stubRefreshTokenStore{err: errors.New("connection lost")}
	reset := &stubResetTokenStore{deleted: 4}
	codes := &stubCodeStore{deleted: 2}
	payments := &stubPaymentStore{deleted: 1}

	w := newTestWorker(t, refresh, reset, codes, payments)

	result, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "delete expired refresh tokens")

	// Other stores still ran
	assert.Equal(t, int64(4), result.PasswordResetTokens)
	assert.Equal(t, int64(2), result.EnrollmentCodes)
	assert.Equal(t, int64(1), result.StalePayments)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	w := newTestWorker(t, &stubRefreshTokenStore{}, &stubResetTokenStore{}, &stubCodeStore{}, &stubPaymentStore{},
		WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
