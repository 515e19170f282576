package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/services"
	"github.com/btrade/btrade-backend/internal/middleware"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
)

// CourseController handles course catalog and admin CRUD operations
type CourseController struct {
	courseService services.CourseService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		courseService: courseService,
		logger:        logger,
	}
}

// ListCourses returns the course catalog. Non-admin callers only see
// published courses.
// @Summary List courses
// @Tags courses
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param tag query string false "Filter by tag"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	tag := ctx.Query("tag")
	viewerRole := middleware.CurrentUserRole(ctx)

	courses, total, err := c.courseService.ListCourses(ctx.Request.Context(), viewerRole, tag, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.PaginatedResponse{
			Items:      courses,
			Pagination: helpers.NewPaginationInfo(total, page, size),
		},
		Timestamp: time.Now(),
	})
}

// GetCourse returns a single course including the caller's registration
// state.
// @Summary Get course details
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	viewerID, _ := middleware.CurrentUserID(ctx)
	viewerRole := middleware.CurrentUserRole(ctx)

	course, err := c.courseService.GetCourse(ctx.Request.Context(), courseID, viewerID, viewerRole)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      course,
		Timestamp: time.Now(),
	})
}

// CreateCourse creates a new course (admin only)
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Course information"
// @Success 201 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid course dates"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	course, err := c.courseService.CreateCourse(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("courseID", course.ID).Str("name", course.Name).Msg("Course created")
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      course,
		Timestamp: time.Now(),
	})
}

// UpdateCourse updates an existing course (admin only)
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Course information"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	course, err := c.courseService.UpdateCourse(ctx.Request.Context(), courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("courseID", courseID).Msg("Course updated")
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      course,
		Timestamp: time.Now(),
	})
}

// DeleteCourse removes a course without enrollments (admin only)
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.ErrorResponse "Course has enrollments"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.courseService.DeleteCourse(ctx.Request.Context(), courseID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("courseID", courseID).Msg("Course deleted")
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Course deleted successfully"},
		Timestamp: time.Now(),
	})
}

// parseIDParam parses a numeric path parameter, writing a 400 response on
// failure.
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	idStr := ctx.Param(name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name+" parameter")
		errorDetail = errorDetail.WithDetails("Must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
