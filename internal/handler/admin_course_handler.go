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

// AdminCourseHandler exposes the course and module management surface.
// Every route behind it is guarded by the admin JWT middleware.
type AdminCourseHandler struct {
	courseService *service.CourseService
}

func NewAdminCourseHandler(courseService *service.CourseService) *AdminCourseHandler {
	return &AdminCourseHandler{courseService: courseService}
}

// CreateCourse godoc
// POST /api/v1/admin/courses
func (h *AdminCourseHandler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course := &model.Course{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		XPReward:    req.XPReward,
	}
	if err := h.courseService.Create(c.Request.Context(), course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// UpdateCourse godoc
// PUT /api/v1/admin/courses/:course_id
func (h *AdminCourseHandler) UpdateCourse(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course := &model.Course{
		ID:          courseID,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		XPReward:    req.XPReward,
	}
	if err := h.courseService.Update(c.Request.Context(), course); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, repository.ErrDuplicate):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// DeleteCourse godoc
// DELETE /api/v1/admin/courses/:course_id
func (h *AdminCourseHandler) DeleteCourse(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "course deleted"})
}

// CreateModule godoc
// POST /api/v1/admin/courses/:course_id/modules
func (h *AdminCourseHandler) CreateModule(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateModuleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	module := &model.Module{
		CourseID: courseID,
		Title:    req.Title,
		Position: req.Position,
	}
	if err := h.courseService.CreateModule(c.Request.Context(), module); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, repository.ErrDuplicate):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"module": module})
}

// DeleteModule godoc
// DELETE /api/v1/admin/modules/:module_id
func (h *AdminCourseHandler) DeleteModule(c *gin.Context) {
	moduleID, err := strconv.Atoi(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.DeleteModule(c.Request.Context(), moduleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "module deleted"})
}
