// Package http provides HTTP handlers for the certificate inventory.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/certkeep/certkeep/internal/certinv/http/dto"
	certinvUseCase "github.com/certkeep/certkeep/internal/certinv/usecase"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	"github.com/certkeep/certkeep/internal/httputil"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

const defaultExpiryWindow = 30 * 24 * time.Hour

// CertificateHandler handles HTTP requests for issued certificates.
type CertificateHandler struct {
	inventory certinvUseCase.CertInventory
	logger    *slog.Logger
}

// NewCertificateHandler creates a new certificate handler with required dependencies.
func NewCertificateHandler(inventory certinvUseCase.CertInventory, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// GetHandler returns one certificate's metadata.
// GET /v1/certificates/:id
func (h *CertificateHandler) GetHandler(c *gin.Context) {
	record, err := h.inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCertificateToResponse(record))
}

// ListHandler returns certificates with pagination support.
// GET /v1/certificates?offset=0&limit=50
func (h *CertificateHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	records, err := h.inventory.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCertificatesToListResponse(records))
}

// ImportHandler records an externally issued certificate chain.
// POST /v1/certificates/import
func (h *CertificateHandler) ImportHandler(c *gin.Context) {
	var req dto.ImportCertificateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, err := h.inventory.Import(c.Request.Context(), []byte(req.ChainPEM), req.Tags)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCertificateToResponse(record))
}

// ListExpiringHandler returns certificates expiring inside the window.
// GET /v1/certificates/expiring?within=720h
func (h *CertificateHandler) ListExpiringHandler(c *gin.Context) {
	window := defaultExpiryWindow
	if raw := c.Query("within"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid within duration"), h.logger)
			return
		}
		window = parsed
	}

	records, err := h.inventory.ListExpiring(c.Request.Context(), window)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCertificatesToListResponse(records))
}

// DownloadChainHandler serves the certificate chain as PEM. The chain is
// public material; the private key is never served.
// GET /v1/certificates/:id/chain
func (h *CertificateHandler) DownloadChainHandler(c *gin.Context) {
	record, err := h.inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+record.ID+`.pem"`)
	c.Data(http.StatusOK, "application/x-pem-file", record.ChainPEM)
}

// UpdateTagsHandler replaces the certificate's tags.
// PUT /v1/certificates/:id/tags
func (h *CertificateHandler) UpdateTagsHandler(c *gin.Context) {
	var req dto.UpdateTagsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	record, err := h.inventory.UpdateTags(c.Request.Context(), c.Param("id"), req.Tags)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCertificateToResponse(record))
}

// DeleteHandler removes a certificate and its vaulted private key.
// DELETE /v1/certificates/:id
func (h *CertificateHandler) DeleteHandler(c *gin.Context) {
	if err := h.inventory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
