package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/services"
	"github.com/btrade/btrade-backend/internal/middleware"
	"github.com/btrade/btrade-backend/internal/pkg/helpers"
)

// EnrollmentController handles ID verification, enrollment listing and
// admin enrollment decisions.
type EnrollmentController struct {
	enrollmentService services.EnrollmentService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService services.EnrollmentService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// VerifyID checks the submitted 13-digit ID card number against the
// caller's trader profile.
// @Summary Verify trader identity
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.VerifyIDRequest true "ID card number"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 422 {object} dto.ErrorResponse "Verification failed with a wire error code"
// @Router /enrollments/verify-id [post]
func (c *EnrollmentController) VerifyID(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.VerifyIDRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.enrollmentService.VerifyID(ctx.Request.Context(), userID, req.IDCardNumber); err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("ID verification failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("Trader identity verified")
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Identity verified"},
		Timestamp: time.Now(),
	})
}

// ListEnrollments returns enrollments for the admin console, optionally
// filtered by status.
// @Summary List enrollments (admin)
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(PENDING,VALIDATED,APPROVED,REJECTED)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /enrollments [get]
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	status := models.EnrollmentStatus(ctx.Query("status"))

	enrollments, total, err := c.enrollmentService.ListEnrollments(ctx.Request.Context(), status, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.PaginatedResponse{
			Items:      enrollments,
			Pagination: helpers.NewPaginationInfo(total, page, size),
		},
		Timestamp: time.Now(),
	})
}

// ListMyEnrollments returns the caller's own enrollments
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse}
// @Router /enrollments/my [get]
func (c *EnrollmentController) ListMyEnrollments(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	enrollments, err := c.enrollmentService.ListMyEnrollments(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      enrollments,
		Timestamp: time.Now(),
	})
}

// HandleAction applies an admin approve or reject decision
// @Summary Approve or reject an enrollment (admin)
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param request body dto.EnrollmentActionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 409 {object} dto.ErrorResponse "Enrollment is not actionable"
// @Router /enrollments/{id}/action [post]
func (c *EnrollmentController) HandleAction(ctx *gin.Context) {
	enrollmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.EnrollmentActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	enrollment, err := c.enrollmentService.HandleAction(ctx.Request.Context(), enrollmentID, req.Action)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("enrollmentID", enrollmentID).
		Str("action", req.Action).
		Msg("Enrollment decision applied")

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      enrollment,
		Timestamp: time.Now(),
	})
}

// GenerateCode creates a confirmation code for a pending enrollment and
// emails it to the student.
// @Summary Generate a confirmation code (admin)
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 201 {object} dto.APIResponse{data=dto.GenerateCodeResponse}
// @Router /enrollments/{id}/code [post]
func (c *EnrollmentController) GenerateCode(ctx *gin.Context) {
	enrollmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	code, err := c.enrollmentService.GenerateCode(ctx.Request.Context(), enrollmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("enrollmentID", enrollmentID).Msg("Confirmation code generated")
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      code,
		Timestamp: time.Now(),
	})
}

// ValidateCode redeems a confirmation code for the caller's enrollment
// @Summary Validate a confirmation code
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ValidateCodeRequest true "Confirmation code"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code"
// @Router /enrollments/validate-code [post]
func (c *EnrollmentController) ValidateCode(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.ValidateCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	enrollment, err := c.enrollmentService.ValidateCode(ctx.Request.Context(), userID, req.Code)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Code validation failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      enrollment,
		Timestamp: time.Now(),
	})
}
