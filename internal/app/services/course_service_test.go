package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

func TestValidateCourseDates(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	courseDay := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start      time.Time
		end        time.Time
		courseDate time.Time
		wantErr    bool
	}{
		{"valid ordering", start, end, courseDay, false},
		{"start equals end", start, start, courseDay, true},
		{"start after end", end, start, courseDay, true},
		{"course day equals end", start, end, end, true},
		{"course day before end", start, courseDay, end, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCourseDates(tt.start, tt.end, tt.courseDate)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidCourseDates)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
