// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	LoginsTotal             prometheus.Counter
	RegistrationsTotal      prometheus.Counter
	CheckoutSessionsTotal   prometheus.Counter
	EnrollmentsTotal        prometheus.Counter
	EnrollmentActionsTotal  *prometheus.CounterVec
	VerificationFailedTotal *prometheus.CounterVec
}

// New creates and registers the application metrics with the given
// registerer. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoginsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "btrade_logins_total",
			Help: "Total number of successful sign-ins.",
		}),
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "btrade_user_registrations_total",
			Help: "Total number of user accounts created.",
		}),
		CheckoutSessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "btrade_checkout_sessions_total",
			Help: "Total number of checkout sessions created.",
		}),
		EnrollmentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "btrade_enrollments_registered_total",
			Help: "Total number of enrollments registered after payment.",
		}),
		EnrollmentActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "btrade_enrollment_actions_total",
			Help: "Total number of admin enrollment actions by action.",
		}, []string{"action"}),
		VerificationFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "btrade_id_verification_failures_total",
			Help: "Total number of failed ID card verifications by error code.",
		}, []string{"code"}),
	}
}
