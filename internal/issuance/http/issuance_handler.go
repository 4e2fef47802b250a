// Package http provides HTTP handlers for issuance runs.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certkeep/certkeep/internal/httputil"
	"github.com/certkeep/certkeep/internal/issuance/http/dto"
	issuanceUseCase "github.com/certkeep/certkeep/internal/issuance/usecase"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// IssuanceHandler handles HTTP requests for certificate issuance runs.
type IssuanceHandler struct {
	issuanceUseCase issuanceUseCase.IssuanceUseCase
	logger          *slog.Logger
}

// NewIssuanceHandler creates a new issuance handler with required dependencies.
func NewIssuanceHandler(useCase issuanceUseCase.IssuanceUseCase, logger *slog.Logger) *IssuanceHandler {
	return &IssuanceHandler{
		issuanceUseCase: useCase,
		logger:          logger,
	}
}

// StartHandler begins a new issuance run.
// POST /v1/issuance
// Returns 202 Accepted: the run continues in the background.
func (h *IssuanceHandler) StartHandler(c *gin.Context) {
	var req dto.StartIssuanceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	request, err := h.issuanceUseCase.Start(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapRequestToResponse(request))
}

// GetHandler returns one issuance run.
// GET /v1/issuance/:id
func (h *IssuanceHandler) GetHandler(c *gin.Context) {
	request, err := h.issuanceUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}

// ListHandler returns issuance runs with pagination support.
// GET /v1/issuance?offset=0&limit=50
func (h *IssuanceHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	requests, err := h.issuanceUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestsToListResponse(requests))
}

// CompleteHandler resumes a run paused for manual intervention.
// POST /v1/issuance/:id/complete
func (h *IssuanceHandler) CompleteHandler(c *gin.Context) {
	request, err := h.issuanceUseCase.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}

// RetryDNSHandler restarts propagation checking after a DNS timeout.
// POST /v1/issuance/:id/retry-dns
func (h *IssuanceHandler) RetryDNSHandler(c *gin.Context) {
	request, err := h.issuanceUseCase.RetryDNS(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}

// RetryFinalizeHandler reruns the finalize step after a retryable failure.
// POST /v1/issuance/:id/retry-finalize
func (h *IssuanceHandler) RetryFinalizeHandler(c *gin.Context) {
	request, err := h.issuanceUseCase.RetryFinalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRequestToResponse(request))
}

// CancelHandler aborts a run.
// POST /v1/issuance/:id/cancel
func (h *IssuanceHandler) CancelHandler(c *gin.Context) {
	if err := h.issuanceUseCase.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ArchiveHandler hides a finished run from listings.
// POST /v1/issuance/:id/archive
func (h *IssuanceHandler) ArchiveHandler(c *gin.Context) {
	if err := h.issuanceUseCase.Archive(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
