package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/judge"
	"github.com/codequestlab/codequest-backend/internal/middleware"
	"github.com/codequestlab/codequest-backend/internal/model"
	"github.com/codequestlab/codequest-backend/internal/repository"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
	"github.com/codequestlab/codequest-backend/internal/validator"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit godoc
// POST /api/v1/tasks/:task_id/submissions
//
// Runs the submitted code against the task's test cases and returns the
// final verdict. The request blocks until evaluation finishes.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, taskID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskLocked):
			response.Fail(c, http.StatusForbidden, response.ErrTaskLocked)
		case errors.Is(err, judge.ErrUnsupportedLanguage):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedLanguage)
		case errors.Is(err, service.ErrExecutionFailed):
			response.FailWithMessage(c, http.StatusBadGateway, response.ErrExecutionFailed, err.Error())
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Get godoc
// GET /api/v1/submissions/:submission_id
func (h *SubmissionHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)

	submission, err := h.submissionService.GetByID(c.Request.Context(), claims.UserID, c.Param("submission_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": submission})
}

// ListRecent godoc
// GET /api/v1/submissions
func (h *SubmissionHandler) ListRecent(c *gin.Context) {
	claims := middleware.GetClaims(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	submissions, err := h.submissionService.ListRecent(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submissions": submissions})
}
