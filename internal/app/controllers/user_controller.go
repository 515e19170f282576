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

// UserController handles admin user management operations
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers returns user accounts with pagination
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	users, total, err := c.userService.ListUsers(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.PaginatedResponse{
			Items:      users,
			Pagination: helpers.NewPaginationInfo(total, page, size),
		},
		Timestamp: time.Now(),
	})
}

// GetUser returns a single user account
// @Summary Get user details (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      user,
		Timestamp: time.Now(),
	})
}

// UpdateRole changes a user's role. Admins cannot change their own role.
// @Summary Update user role (admin)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/{id}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	actorID, _ := middleware.CurrentUserID(ctx)
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	user, err := c.userService.UpdateRole(ctx.Request.Context(), actorID, userID, models.RoleType(req.RoleType))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("userID", userID).
		Str("roleType", req.RoleType).
		Msg("User role updated")

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      user,
		Timestamp: time.Now(),
	})
}

// UpdateActive enables or disables a user account. Disabling revokes the
// user's refresh tokens.
// @Summary Enable or disable a user (admin)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateActiveRequest true "Active flag"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/{id}/active [put]
func (c *UserController) UpdateActive(ctx *gin.Context) {
	actorID, _ := middleware.CurrentUserID(ctx)
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	user, err := c.userService.UpdateActive(ctx.Request.Context(), actorID, userID, *req.IsActive)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().
		Int64("userID", userID).
		Bool("isActive", *req.IsActive).
		Msg("User active state updated")

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      user,
		Timestamp: time.Now(),
	})
}

// DeleteUser removes a user account
// @Summary Delete a user (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	actorID, _ := middleware.CurrentUserID(ctx)
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), actorID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("User deleted")
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "User deleted successfully"},
		Timestamp: time.Now(),
	})
}
