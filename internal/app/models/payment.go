package models

import "time"

// Payment maps an opaque checkout session issued by the payment provider
// to the user and course it was created for. The provider session id is the
// only handle the browser carries back after the hosted checkout redirect.
type Payment struct {
	ID        int64         `json:"id" db:"id"`
	SessionID string        `json:"sessionId" db:"session_id"`
	UserID    int64         `json:"userId" db:"user_id"`
	CourseID  int64         `json:"courseId" db:"course_id"`
	Amount    int64         `json:"amount" db:"amount"`
	Status    PaymentStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}
