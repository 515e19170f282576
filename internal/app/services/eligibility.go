package services

import (
	"time"

	"github.com/btrade/btrade-backend/internal/app/models"
)

// RegistrationStateFor decides what the register button should show for a
// course, for a given viewer, at a given instant.
//
// The checks apply in a fixed order: admins never register, an existing
// enrollment wins over any window state, the registration window is checked
// before seats, and seats are only consulted for an otherwise open course.
// Registration closes when the window ends or the course day arrives,
// whichever comes first.
func RegistrationStateFor(course *models.Course, role models.RoleType, alreadyRegistered bool, now time.Time) models.RegistrationState {
	if role == models.RoleAdmin {
		return models.RegistrationAdminView
	}
	if alreadyRegistered {
		return models.RegistrationAlreadyRegistered
	}
	if now.Before(course.StartDate) {
		return models.RegistrationNotOpenYet
	}
	if now.After(course.EndDate) || !now.Before(course.CourseDate) {
		return models.RegistrationClosed
	}
	if course.AvailableSeats <= 0 {
		return models.RegistrationSeatsExhausted
	}
	return models.RegistrationOpen
}
