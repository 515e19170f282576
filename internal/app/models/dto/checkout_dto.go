package dto

import "github.com/btrade/btrade-backend/internal/app/models"

// CreateCheckoutSessionRequest starts a checkout for a course.
type CreateCheckoutSessionRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1"`
}

// CheckoutSessionResponse returns the provider session handle. The client
// redirects the browser to URL to complete payment.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutSessionDetail is the session metadata served to the post-payment
// success page: who paid, for what, and where the payment stands.
type CheckoutSessionDetail struct {
	SessionID      string               `json:"sessionId"`
	UserID         int64                `json:"userId"`
	CourseID       int64                `json:"courseId"`
	Amount         int64                `json:"amount"`
	PaymentStatus  models.PaymentStatus `json:"paymentStatus"`
	ProviderStatus string               `json:"providerStatus"`
}
