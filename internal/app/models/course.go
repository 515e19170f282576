package models

import "time"

// Course represents a purchasable course offering.
//
// Invariants: 0 <= AvailableSeats <= MaxSeats, StartDate < EndDate and
// CourseDate is strictly after EndDate. The date ordering is enforced on
// create and update, not only by client-side forms.
type Course struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    *string   `json:"description,omitempty" db:"description"` // Nullable
	Price          int64     `json:"price" db:"price"`                       // Price in the smallest currency unit
	Location       string    `json:"location" db:"location"`
	MaxSeats       int       `json:"maxSeats" db:"max_seats"`
	AvailableSeats int       `json:"availableSeats" db:"available_seats"`
	StartDate      time.Time `json:"startDate" db:"start_date"` // Registration window opens
	EndDate        time.Time `json:"endDate" db:"end_date"`     // Registration window closes
	CourseDate     time.Time `json:"courseDate" db:"course_date"`
	IsPublished    bool      `json:"isPublished" db:"is_published"`
	Tags           []string  `json:"tags" db:"tags"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
