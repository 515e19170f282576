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

// DashboardController serves the admin dashboard aggregates
type DashboardController struct {
	dashboardService services.DashboardService
	logger           zerolog.Logger
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService, logger zerolog.Logger) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetSummary returns the cached dashboard aggregates
// @Summary Get dashboard summary (admin)
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardSummary}
// @Router /dashboard/summary [get]
func (c *DashboardController) GetSummary(ctx *gin.Context) {
	summary, err := c.dashboardService.GetSummary(ctx.Request.Context())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build dashboard summary")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      summary,
		Timestamp: time.Now(),
	})
}
