package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codequestlab/codequest-backend/internal/middleware"
	"github.com/codequestlab/codequest-backend/internal/repository"
	"github.com/codequestlab/codequest-backend/internal/response"
	"github.com/codequestlab/codequest-backend/internal/service"
)

type CertificateHandler struct {
	certificateService *service.CertificateService
}

func NewCertificateHandler(certificateService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Issue godoc
// POST /api/v1/courses/:course_id/certificate
//
// Issues a completion certificate once all tasks in the course are done.
func (h *CertificateHandler) Issue(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cert, err := h.certificateService.Issue(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotEligible):
			response.Fail(c, http.StatusForbidden, response.ErrNotEligible)
		case errors.Is(err, service.ErrAlreadyCertified):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyCertified)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"certificate": cert})
}

// ListMine godoc
// GET /api/v1/certificates
func (h *CertificateHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)

	certs, err := h.certificateService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"certificates": certs})
}

// Verify godoc
// GET /api/v1/certificates/verify/:number
//
// Public endpoint so third parties can confirm a certificate is genuine.
func (h *CertificateHandler) Verify(c *gin.Context) {
	cert, err := h.certificateService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"certificate": cert})
}
