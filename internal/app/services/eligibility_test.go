package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/btrade/btrade-backend/internal/app/models"
)

func courseFixture(availableSeats int) *models.Course {
	return &models.Course{
		ID:             1,
		Name:           "Advanced Futures Trading",
		MaxSeats:       30,
		AvailableSeats: availableSeats,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CourseDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		IsPublished:    true,
	}
}

func TestRegistrationStateFor(t *testing.T) {
	inWindow := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		course            *models.Course
		role              models.RoleType
		alreadyRegistered bool
		now               time.Time
		want              models.RegistrationState
	}{
		{
			name:   "open within window with seats",
			course: courseFixture(1),
			role:   models.RoleUser,
			now:    inWindow,
			want:   models.RegistrationOpen,
		},
		{
			name:   "seats exhausted within window",
			course: courseFixture(0),
			role:   models.RoleUser,
			now:    inWindow,
			want:   models.RegistrationSeatsExhausted,
		},
		{
			name:   "not open before start date",
			course: courseFixture(10),
			role:   models.RoleUser,
			now:    time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			want:   models.RegistrationNotOpenYet,
		},
		{
			name:   "closed after end date",
			course: courseFixture(10),
			role:   models.RoleUser,
			now:    time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			want:   models.RegistrationClosed,
		},
		{
			name:   "closed on course day",
			course: courseFixture(10),
			role:   models.RoleUser,
			now:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			want:   models.RegistrationClosed,
		},
		{
			name:              "already registered wins over open window",
			course:            courseFixture(10),
			role:              models.RoleUser,
			alreadyRegistered: true,
			now:               inWindow,
			want:              models.RegistrationAlreadyRegistered,
		},
		{
			name:              "already registered wins over closed window",
			course:            courseFixture(10),
			role:              models.RoleUser,
			alreadyRegistered: true,
			now:               time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			want:              models.RegistrationAlreadyRegistered,
		},
		{
			name:   "admin never registers",
			course: courseFixture(10),
			role:   models.RoleAdmin,
			now:    inWindow,
			want:   models.RegistrationAdminView,
		},
		{
			name:              "admin view wins over already registered",
			course:            courseFixture(10),
			role:              models.RoleAdmin,
			alreadyRegistered: true,
			now:               inWindow,
			want:              models.RegistrationAdminView,
		},
		{
			name:   "exhausted course outside window reports closed",
			course: courseFixture(0),
			role:   models.RoleUser,
			now:    time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			want:   models.RegistrationClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegistrationStateFor(tt.course, tt.role, tt.alreadyRegistered, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}
