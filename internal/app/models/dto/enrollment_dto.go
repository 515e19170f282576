package dto

import (
	"time"

	"github.com/btrade/btrade-backend/internal/app/models"
)

// VerifyIDRequest carries the 13-digit ID card number to verify.
type VerifyIDRequest struct {
	IDCardNumber string `json:"idCardNumber" binding:"required"`
}

// EnrollmentActionRequest carries an admin approve/reject decision.
type EnrollmentActionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// ValidateCodeRequest carries a confirmation code submitted by a student.
type ValidateCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// GenerateCodeResponse returns a freshly generated confirmation code.
type GenerateCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterEnrollmentRequest completes a paid checkout session.
type RegisterEnrollmentRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// EnrollmentResponse is the enrollment shape returned to clients. User and
// course fields are populated on admin listings.
type EnrollmentResponse struct {
	ID         int64                   `json:"id"`
	UserID     int64                   `json:"userId"`
	CourseID   int64                   `json:"courseId"`
	Status     models.EnrollmentStatus `json:"status"`
	CourseName string                  `json:"courseName,omitempty"`
	CourseDate *time.Time              `json:"courseDate,omitempty"`
	UserEmail  string                  `json:"userEmail,omitempty"`
	UserName   string                  `json:"userName,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

// NewEnrollmentResponse maps an enrollment model (with optional relations)
// to its response shape.
func NewEnrollmentResponse(e *models.Enrollment) *EnrollmentResponse {
	if e == nil {
		return nil
	}
	resp := &EnrollmentResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		CourseID:  e.CourseID,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Course != nil {
		resp.CourseName = e.Course.Name
		courseDate := e.Course.CourseDate
		resp.CourseDate = &courseDate
	}
	if e.User != nil {
		resp.UserEmail = e.User.Email
		resp.UserName = e.User.FirstName + " " + e.User.LastName
	}
	return resp
}
