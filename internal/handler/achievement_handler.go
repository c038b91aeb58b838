package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/middleware"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
)

type AchievementHandler struct {
	achievementService *service.AchievementService
}

func NewAchievementHandler(achievementService *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

// List godoc
// GET /api/v1/achievements
func (h *AchievementHandler) List(c *gin.Context) {
	achievements, err := h.achievementService.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"achievements": achievements})
}

// ListMine godoc
// GET /api/v1/achievements/me
func (h *AchievementHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)

	unlocked, err := h.achievementService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"achievements": unlocked})
}
