// Package workers contains background maintenance jobs.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RefreshTokenStore exposes cleanup for expired refresh tokens.
type RefreshTokenStore interface {
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// PasswordResetTokenStore exposes cleanup for expired reset tokens.
type PasswordResetTokenStore interface {
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// EnrollmentCodeStore exposes cleanup for expired confirmation codes.
type EnrollmentCodeStore interface {
	DeleteExpiredCodes(ctx context.Context) (int64, error)
}

// PaymentStore exposes cleanup for checkout sessions that were started but
// never paid.
type PaymentStore interface {
	DeleteStalePayments(ctx context.Context, olderThan time.Time) (int64, error)
}

// CleanupResult summarizes the deletions performed by a cleanup run.
type CleanupResult struct {
	RefreshTokens       int64
	PasswordResetTokens int64
	EnrollmentCodes     int64
	StalePayments       int64
}

// CleanupWorker periodically removes expired tokens, codes and abandoned
// checkout sessions.
type CleanupWorker struct {
	refreshTokens   RefreshTokenStore
	resetTokens     PasswordResetTokenStore
	codes           EnrollmentCodeStore
	payments        PaymentStore
	interval        time.Duration
	stalePaymentAge time.Duration
	logger          zerolog.Logger
}

// CleanupOption configures CleanupWorker.
type CleanupOption func(*CleanupWorker)

// WithInterval overrides the run interval when greater than zero.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithStalePaymentAge overrides how old an unpaid checkout session must be
// before it is removed.
func WithStalePaymentAge(age time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if age > 0 {
			w.stalePaymentAge = age
		}
	}
}

// NewCleanupWorker constructs a CleanupWorker with the required stores.
func NewCleanupWorker(
	refreshTokens RefreshTokenStore,
	resetTokens PasswordResetTokenStore,
	codes EnrollmentCodeStore,
	payments PaymentStore,
	logger zerolog.Logger,
	opts ...CleanupOption,
) (*CleanupWorker, error) {
	if refreshTokens == nil || resetTokens == nil || codes == nil || payments == nil {
		return nil, fmt.Errorf("all cleanup stores are required")
	}
	w := &CleanupWorker{
		refreshTokens:   refreshTokens,
		resetTokens:     resetTokens,
		codes:           codes,
		payments:        payments,
		interval:        time.Hour,
		stalePaymentAge: 24 * time.Hour,
		logger:          logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (w *CleanupWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.Error().Err(err).Msg("Cleanup run failed")
				continue
			}
			w.logger.Debug().
				Int64("refreshTokens", result.RefreshTokens).
				Int64("passwordResetTokens", result.PasswordResetTokens).
				Int64("enrollmentCodes", result.EnrollmentCodes).
				Int64("stalePayments", result.StalePayments).
				Msg("Cleanup run completed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single cleanup pass. Partial failures are aggregated
// so one failing store does not block the rest.
func (w *CleanupWorker) RunOnce(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult
	var errs []error

	deleted, err := w.refreshTokens.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired refresh tokens: %w", err))
	} else {
		res.RefreshTokens = deleted
	}

	deleted, err = w.resetTokens.DeleteExpiredTokens(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired password reset tokens: %w", err))
	} else {
		res.PasswordResetTokens = deleted
	}

	deleted, err = w.codes.DeleteExpiredCodes(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired enrollment codes: %w", err))
	} else {
		res.EnrollmentCodes = deleted
	}

	deleted, err = w.payments.DeleteStalePayments(ctx, time.Now().Add(-w.stalePaymentAge))
	if err != nil {
		errs = append(errs, fmt.Errorf("delete stale payments: %w", err))
	} else {
		res.StalePayments = deleted
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
