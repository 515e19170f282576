package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/repositories"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
)

// CourseService defines the interface for course operations
type CourseService interface {
	CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetCourse(ctx context.Context, courseID, viewerID int64, viewerRole models.RoleType) (*dto.CourseResponse, error)
	ListCourses(ctx context.Context, viewerRole models.RoleType, tag string, page, pageSize int) ([]*dto.CourseResponse, int64, error)
	UpdateCourse(ctx context.Context, courseID int64, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, courseID int64) error
}

// courseServiceImpl implements the CourseService interface
type courseServiceImpl struct {
	courseRepo     *repositories.CourseRepository
	enrollmentRepo *repositories.EnrollmentRepository
	logger         zerolog.Logger
}

// NewCourseService creates a new course service instance
func NewCourseService(
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	logger zerolog.Logger,
) CourseService {
	return &courseServiceImpl{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		logger:         logger,
	}
}

// validateCourseDates enforces the date ordering on the server, not only in
// client-side forms: the registration window must be a real interval and the
// course day must fall strictly after it.
func validateCourseDates(startDate, endDate, courseDate time.Time) error {
	if !startDate.Before(endDate) {
		return fmt.Errorf("%w: startDate must be before endDate", apperrors.ErrInvalidCourseDates)
	}
	if !endDate.Before(courseDate) {
		return fmt.Errorf("%w: courseDate must be after endDate", apperrors.ErrInvalidCourseDates)
	}
	return nil
}

// CreateCourse creates a new course. Available seats start at capacity.
func (s *courseServiceImpl) CreateCourse(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := validateCourseDates(req.StartDate, req.EndDate, req.CourseDate); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          req.Price,
		Location:       strings.TrimSpace(req.Location),
		MaxSeats:       req.MaxSeats,
		AvailableSeats: req.MaxSeats,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		CourseDate:     req.CourseDate,
		IsPublished:    req.IsPublished,
		Tags:           req.Tags,
	}

	id, err := s.courseRepo.CreateCourse(ctx, course)
	if err != nil {
		return nil, err
	}
	course.ID = id

	s.logger.Info().Int64("courseID", id).Str("name", course.Name).Msg("Course created")
	return dto.NewCourseResponse(course), nil
}

// GetCourse retrieves a course with the viewer's registration state. Users
// only see published courses; admins see everything.
func (s *courseServiceImpl) GetCourse(ctx context.Context, courseID, viewerID int64, viewerRole models.RoleType) (*dto.CourseResponse, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if !course.IsPublished && viewerRole != models.RoleAdmin {
		return nil, apperrors.ErrCourseNotFound
	}

	alreadyRegistered := false
	if viewerRole != models.RoleAdmin {
		alreadyRegistered, err = s.enrollmentRepo.IsUserRegistered(ctx, viewerID, courseID)
		if err != nil {
			return nil, err
		}
	}

	resp := dto.NewCourseResponse(course)
	resp.RegistrationState = RegistrationStateFor(course, viewerRole, alreadyRegistered, time.Now())
	return resp, nil
}

// ListCourses retrieves the course catalog with pagination
func (s *courseServiceImpl) ListCourses(ctx context.Context, viewerRole models.RoleType, tag string, page, pageSize int) ([]*dto.CourseResponse, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	publishedOnly := viewerRole != models.RoleAdmin

	courses, total, err := s.courseRepo.ListCourses(ctx, publishedOnly, tag, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, dto.NewCourseResponse(course))
	}
	return responses, total, nil
}

// UpdateCourse updates an existing course. Capacity changes keep the number
// of taken seats constant.
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, courseID int64, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if err := validateCourseDates(req.StartDate, req.EndDate, req.CourseDate); err != nil {
		return nil, err
	}

	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	takenSeats := course.MaxSeats - course.AvailableSeats
	if req.MaxSeats < takenSeats {
		return nil, fmt.Errorf("%w: maxSeats cannot be below the %d seats already taken",
			apperrors.ErrValidationFailed, takenSeats)
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Description = req.Description
	course.Price = req.Price
	course.Location = strings.TrimSpace(req.Location)
	course.MaxSeats = req.MaxSeats
	course.AvailableSeats = req.MaxSeats - takenSeats
	course.StartDate = req.StartDate
	course.EndDate = req.EndDate
	course.CourseDate = req.CourseDate
	course.IsPublished = req.IsPublished
	course.Tags = req.Tags

	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", courseID).Msg("Course updated")
	return dto.NewCourseResponse(course), nil
}

// DeleteCourse deletes a course without enrollments
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, courseID int64) error {
	if err := s.courseRepo.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	s.logger.Info().Int64("courseID", courseID).Msg("Course deleted")
	return nil
}
