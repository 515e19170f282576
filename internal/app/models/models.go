package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin RoleType = "ADMIN"
	RoleUser  RoleType = "USER"
)

// EnrollmentStatus describes the lifecycle of an enrollment record.
// Transitions: PENDING -> VALIDATED (confirmation code), PENDING or
// VALIDATED -> APPROVED or REJECTED (admin action). APPROVED and
// REJECTED are terminal.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "PENDING"
	EnrollmentValidated EnrollmentStatus = "VALIDATED"
	EnrollmentApproved  EnrollmentStatus = "APPROVED"
	EnrollmentRejected  EnrollmentStatus = "REJECTED"
)

// PaymentStatus describes the state of a checkout session record.
type PaymentStatus string

const (
	PaymentCreated   PaymentStatus = "CREATED"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// RegistrationState is the outcome of the registration eligibility check
// for a course as seen by a particular user at a particular time.
type RegistrationState string

const (
	RegistrationAdminView         RegistrationState = "admin-view"
	RegistrationAlreadyRegistered RegistrationState = "already-registered"
	RegistrationNotOpenYet        RegistrationState = "not-open-yet"
	RegistrationClosed            RegistrationState = "closed"
	RegistrationSeatsExhausted    RegistrationState = "seats-exhausted"
	RegistrationOpen              RegistrationState = "open"
)
