// Package http provides HTTP handlers for ACME issuer management.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certkeep/certkeep/internal/httputil"
	"github.com/certkeep/certkeep/internal/issuer/http/dto"
	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// IssuerHandler handles HTTP requests for ACME issuer management.
type IssuerHandler struct {
	issuerUseCase issuerUseCase.IssuerUseCase
	logger        *slog.Logger
}

// NewIssuerHandler creates a new issuer handler with required dependencies.
func NewIssuerHandler(useCase issuerUseCase.IssuerUseCase, logger *slog.Logger) *IssuerHandler {
	return &IssuerHandler{
		issuerUseCase: useCase,
		logger:        logger,
	}
}

// CreateHandler registers a new ACME issuer.
// POST /v1/issuers
// Returns 201 Created with the issuer configuration.
func (h *IssuerHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateIssuerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issuer, err := h.issuerUseCase.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuerToResponse(issuer))
}

// GetHandler returns one issuer.
// GET /v1/issuers/:id
func (h *IssuerHandler) GetHandler(c *gin.Context) {
	issuer, err := h.issuerUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIssuerToResponse(issuer))
}

// GetSelectedHandler returns the issuer new issuance runs use.
// GET /v1/issuers/selected
func (h *IssuerHandler) GetSelectedHandler(c *gin.Context) {
	issuer, err := h.issuerUseCase.GetSelected(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIssuerToResponse(issuer))
}

// ListHandler returns issuers with pagination support.
// GET /v1/issuers?offset=0&limit=50
func (h *IssuerHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	issuers, err := h.issuerUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIssuersToListResponse(issuers))
}

// UpdateHandler applies issuer changes.
// PUT /v1/issuers/:id
func (h *IssuerHandler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateIssuerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issuer, err := h.issuerUseCase.Update(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIssuerToResponse(issuer))
}

// SelectHandler marks the issuer as the one used for new issuance runs.
// POST /v1/issuers/:id/select
func (h *IssuerHandler) SelectHandler(c *gin.Context) {
	if err := h.issuerUseCase.Select(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// EnsureAccountHandler registers the issuer's account key with the CA.
// POST /v1/issuers/:id/ensure-account
func (h *IssuerHandler) EnsureAccountHandler(c *gin.Context) {
	issuer, err := h.issuerUseCase.EnsureAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapIssuerToResponse(issuer))
}

// DeleteHandler removes an issuer and its vaulted account key.
// DELETE /v1/issuers/:id
func (h *IssuerHandler) DeleteHandler(c *gin.Context) {
	if err := h.issuerUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
