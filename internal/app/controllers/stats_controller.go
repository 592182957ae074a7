package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
)

// StatsController serves the admin dashboard counters
type StatsController struct {
	statsService services.StatsService
}

// NewStatsController creates a new StatsController
func NewStatsController(statsService services.StatsService) *StatsController {
	return &StatsController{statsService: statsService}
}

// GetStats returns the dashboard counters
// @Summary Dashboard statistics
// @Description Session, teacher, room and program counters. Served from cache when available.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StatsResponse} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Router /stats [get]
func (c *StatsController) GetStats(ctx *gin.Context) {
	stats, err := c.statsService.GetStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.StatsResponse{
		ActiveSessions:     stats.ActiveSessions,
		PlannedSessions:    stats.PlannedSessions,
		ConfirmedSessions:  stats.ConfirmedSessions,
		CancelledSessions:  stats.CancelledSessions,
		ActiveTeachers:     stats.ActiveTeachers,
		Rooms:              stats.Rooms,
		Programs:           stats.Programs,
		PendingUnavailable: stats.PendingUnavailable,
	}))
}
