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

// AdminTaskHandler manages tasks and their test cases.
type AdminTaskHandler struct {
	courseService *service.CourseService
}

func NewAdminTaskHandler(courseService *service.CourseService) *AdminTaskHandler {
	return &AdminTaskHandler{courseService: courseService}
}

// CreateTask godoc
// POST /api/v1/admin/modules/:module_id/tasks
func (h *AdminTaskHandler) CreateTask(c *gin.Context) {
	moduleID, err := strconv.Atoi(c.Param("module_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task := &model.Task{
		ModuleID:      moduleID,
		Title:         req.Title,
		Prompt:        req.Prompt,
		Position:      req.Position,
		TimeLimitSecs: req.TimeLimitSecs,
		MemoryLimitMB: req.MemoryLimitMB,
		StarterCode:   req.StarterCode,
		Solution:      req.Solution,
		XPReward:      req.XPReward,
	}
	if err := h.courseService.CreateTask(c.Request.Context(), task); err != nil {
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
	response.Success(c, http.StatusCreated, gin.H{"task": task})
}

// GetTask godoc
// GET /api/v1/admin/tasks/:task_id
//
// Returns the task with its solution and the full test case list,
// hidden cases included.
func (h *AdminTaskHandler) GetTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.courseService.GetTaskAdmin(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// UpdateTask godoc
// PUT /api/v1/admin/tasks/:task_id
func (h *AdminTaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.courseService.GetTaskAdmin(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	task := &model.Task{
		ID:            taskID,
		ModuleID:      existing.ModuleID,
		Title:         req.Title,
		Prompt:        req.Prompt,
		Position:      req.Position,
		TimeLimitSecs: req.TimeLimitSecs,
		MemoryLimitMB: req.MemoryLimitMB,
		StarterCode:   req.StarterCode,
		Solution:      req.Solution,
		XPReward:      req.XPReward,
	}
	if err := h.courseService.UpdateTask(c.Request.Context(), task); err != nil {
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
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// DeleteTask godoc
// DELETE /api/v1/admin/tasks/:task_id
func (h *AdminTaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.DeleteTask(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "task deleted"})
}

// CreateTestCase godoc
// POST /api/v1/admin/tasks/:task_id/test-cases
func (h *AdminTaskHandler) CreateTestCase(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateTestCaseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tc := &model.TestCase{
		TaskID:         taskID,
		Input:          req.Input,
		ExpectedOutput: req.ExpectedOutput,
		Hidden:         req.Hidden,
		Position:       req.Position,
	}
	if err := h.courseService.CreateTestCase(c.Request.Context(), tc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test_case": tc})
}

// DeleteTestCase godoc
// DELETE /api/v1/admin/test-cases/:test_case_id
func (h *AdminTaskHandler) DeleteTestCase(c *gin.Context) {
	testCaseID, err := strconv.Atoi(c.Param("test_case_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.DeleteTestCase(c.Request.Context(), testCaseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "test case deleted"})
}
