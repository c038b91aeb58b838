package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
	"github.com/codequestlab/codequest-backend/internal/validator"
)

type AdminAchievementHandler struct {
	achievementService *service.AchievementService
}

func NewAdminAchievementHandler(achievementService *service.AchievementService) *AdminAchievementHandler {
	return &AdminAchievementHandler{achievementService: achievementService}
}

// Create godoc
// POST /api/v1/admin/achievements
func (h *AdminAchievementHandler) Create(c *gin.Context) {
	var req model.CreateAchievementRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	achievement := &model.Achievement{
		Name:          req.Name,
		Description:   req.Description,
		Icon:          req.Icon,
		XPReward:      req.XPReward,
		ConditionType: req.ConditionType,
		Threshold:     req.Threshold,
	}
	if err := h.achievementService.Create(c.Request.Context(), achievement); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"achievement": achievement})
}

// Delete godoc
// DELETE /api/v1/admin/achievements/:achievement_id
func (h *AdminAchievementHandler) Delete(c *gin.Context) {
	achievementID, err := strconv.Atoi(c.Param("achievement_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.achievementService.Delete(c.Request.Context(), achievementID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "achievement deleted"})
}
