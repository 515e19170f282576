package models

import "time"

// Enrollment links a user to a course registration and its approval status.
type Enrollment struct {
	ID                int64            `json:"id" db:"id"`
	UserID            int64            `json:"userId" db:"user_id"`
	CourseID          int64            `json:"courseId" db:"course_id"`
	Status            EnrollmentStatus `json:"status" db:"status"`
	CheckoutSessionID string           `json:"checkoutSessionId" db:"checkout_session_id"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	User   *User   `json:"user,omitempty"`
	Course *Course `json:"course,omitempty"`
}

// EnrollmentCode is a one-time confirmation code for an enrollment.
// Admins generate it, the enrolled student validates it; validation moves
// the enrollment from PENDING to VALIDATED.
type EnrollmentCode struct {
	ID           int64      `json:"id" db:"id"`
	EnrollmentID int64      `json:"enrollmentId" db:"enrollment_id"`
	Code         string     `json:"code" db:"code"`
	ExpiresAt    time.Time  `json:"expiresAt" db:"expires_at"`
	UsedAt       *time.Time `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}
