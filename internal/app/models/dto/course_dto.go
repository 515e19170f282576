package dto

import (
	"time"

	"github.com/btrade/btrade-backend/internal/app/models"
)

// CreateCourseRequest carries the fields for creating a course.
type CreateCourseRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description *string   `json:"description,omitempty"`
	Price       int64     `json:"price" binding:"required,min=0"`
	Location    string    `json:"location" binding:"required"`
	MaxSeats    int       `json:"maxSeats" binding:"required,min=1"`
	StartDate   time.Time `json:"startDate" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required"`
	CourseDate  time.Time `json:"courseDate" binding:"required"`
	IsPublished bool      `json:"isPublished"`
	Tags        []string  `json:"tags"`
}

// UpdateCourseRequest carries the fields for updating a course.
type UpdateCourseRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    *string   `json:"description,omitempty"`
	Price          int64     `json:"price" binding:"required,min=0"`
	Location       string    `json:"location" binding:"required"`
	MaxSeats       int       `json:"maxSeats" binding:"required,min=1"`
	AvailableSeats int       `json:"availableSeats" binding:"min=0"`
	StartDate      time.Time `json:"startDate" binding:"required"`
	EndDate        time.Time `json:"endDate" binding:"required"`
	CourseDate     time.Time `json:"courseDate" binding:"required"`
	IsPublished    bool      `json:"isPublished"`
	Tags           []string  `json:"tags"`
}

// CourseResponse is the course shape returned to clients, including the
// caller-specific registration state for the detail view.
type CourseResponse struct {
	ID                int64                    `json:"id"`
	Name              string                   `json:"name"`
	Description       *string                  `json:"description,omitempty"`
	Price             int64                    `json:"price"`
	Location          string                   `json:"location"`
	MaxSeats          int                      `json:"maxSeats"`
	AvailableSeats    int                      `json:"availableSeats"`
	StartDate         time.Time                `json:"startDate"`
	EndDate           time.Time                `json:"endDate"`
	CourseDate        time.Time                `json:"courseDate"`
	IsPublished       bool                     `json:"isPublished"`
	Tags              []string                 `json:"tags"`
	RegistrationState models.RegistrationState `json:"registrationState,omitempty"`
}

// NewCourseResponse maps a course model to its response shape.
func NewCourseResponse(course *models.Course) *CourseResponse {
	if course == nil {
		return nil
	}
	tags := course.Tags
	if tags == nil {
		tags = []string{}
	}
	return &CourseResponse{
		ID:             course.ID,
		Name:           course.Name,
		Description:    course.Description,
		Price:          course.Price,
		Location:       course.Location,
		MaxSeats:       course.MaxSeats,
		AvailableSeats: course.AvailableSeats,
		StartDate:      course.StartDate,
		EndDate:        course.EndDate,
		CourseDate:     course.CourseDate,
		IsPublished:    course.IsPublished,
		Tags:           tags,
	}
}
