package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/middleware"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Get godoc
// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)

	dashboard, err := h.dashboardService.GetForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, dashboard)
}
