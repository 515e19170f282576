package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/app/services"
	"github.com/btrade/btrade-backend/internal/middleware"
)

// CheckoutController handles the hosted-payment checkout flow
type CheckoutController struct {
	checkoutService services.CheckoutService
	logger          zerolog.Logger
}

// NewCheckoutController creates a new CheckoutController
func NewCheckoutController(checkoutService services.CheckoutService, logger zerolog.Logger) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// CreateSession starts a checkout session for a course. The client
// redirects the browser to the returned URL.
// @Summary Create a checkout session
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCheckoutSessionRequest true "Course to purchase"
// @Success 201 {object} dto.APIResponse{data=dto.CheckoutSessionResponse}
// @Failure 403 {object} dto.ErrorResponse "Identity not verified"
// @Failure 409 {object} dto.ErrorResponse "Registration not open or seats exhausted"
// @Router /checkout/sessions [post]
func (c *CheckoutController) CreateSession(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.CreateCheckoutSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	session, err := c.checkoutService.CreateSession(ctx.Request.Context(), userID, req.CourseID)
	if err != nil {
		c.logger.Warn().Err(err).
			Int64("userID", userID).
			Int64("courseID", req.CourseID).
			Msg("Checkout session creation failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("userID", userID).
		Int64("courseID", req.CourseID).
		Str("sessionID", session.SessionID).
		Msg("Checkout session created")

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      session,
		Timestamp: time.Now(),
	})
}

// GetSession returns the session detail served to the post-payment page
// @Summary Get checkout session detail
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.CheckoutSessionDetail}
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /checkout/sessions/{id} [get]
func (c *CheckoutController) GetSession(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	sessionID := ctx.Param("id")
	if sessionID == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Missing session ID")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	detail, err := c.checkoutService.GetSessionDetail(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      detail,
		Timestamp: time.Now(),
	})
}

// RegisterEnrollment finalizes a paid session into a pending enrollment.
// Calling it again with a consumed session returns the same enrollment.
// @Summary Register enrollment after payment
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegisterEnrollmentRequest true "Paid session ID"
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 402 {object} dto.ErrorResponse "Payment not completed"
// @Failure 409 {object} dto.ErrorResponse "Seats exhausted"
// @Router /checkout/register [post]
func (c *CheckoutController) RegisterEnrollment(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.RegisterEnrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	enrollment, err := c.checkoutService.RegisterEnrollment(ctx.Request.Context(), userID, req.SessionID)
	if err != nil {
		c.logger.Warn().Err(err).
			Int64("userID", userID).
			Str("sessionID", req.SessionID).
			Msg("Enrollment registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("userID", userID).
		Int64("enrollmentID", enrollment.ID).
		Msg("Enrollment registered")

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      enrollment,
		Timestamp: time.Now(),
	})
}
