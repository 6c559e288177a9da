package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
	location         *time.Location
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService, location *time.Location) *DashboardHandler {
	if location == nil {
		location = time.UTC
	}
	return &DashboardHandler{dashboardService: dashboardService, location: location}
}

// GetStats handles getting dashboard statistics. ?from= and ?to= are
// YYYY-MM-DD in shop time; both default to the current month.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	from, to, err := parseDateRange(c.Query("from"), c.Query("to"), h.location)
	if err != nil {
		response.Error(c, err)
		return
	}

	var start, end time.Time
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}

	stats, err := h.dashboardService.GetDashboardStats(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Dashboard stats retrieved successfully", stats)
}
