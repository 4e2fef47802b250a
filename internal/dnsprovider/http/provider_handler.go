// Package http provides HTTP handlers for DNS provider management.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certkeep/certkeep/internal/dnsprovider/http/dto"
	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
	"github.com/certkeep/certkeep/internal/httputil"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// ProviderHandler handles HTTP requests for DNS provider management.
type ProviderHandler struct {
	providerUseCase dnsUseCase.ProviderUseCase
	logger          *slog.Logger
}

// NewProviderHandler creates a new provider handler with required dependencies.
func NewProviderHandler(providerUseCase dnsUseCase.ProviderUseCase, logger *slog.Logger) *ProviderHandler {
	return &ProviderHandler{
		providerUseCase: providerUseCase,
		logger:          logger,
	}
}

// CreateHandler registers a new DNS provider.
// POST /v1/dns-providers
// Returns 201 Created with the provider and any suffix overlaps.
func (h *ProviderHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateProviderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	out, err := h.providerUseCase.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapProviderWithOverlapsToResponse(out))
}

// GetHandler returns one provider.
// GET /v1/dns-providers/:id
func (h *ProviderHandler) GetHandler(c *gin.Context) {
	provider, err := h.providerUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProviderToResponse(provider))
}

// ListHandler returns providers with pagination support.
// GET /v1/dns-providers?offset=0&limit=50
func (h *ProviderHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	providers, err := h.providerUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProvidersToListResponse(providers))
}

// UpdateHandler applies provider changes, rotating credentials in place when
// new values are submitted.
// PUT /v1/dns-providers/:id
func (h *ProviderHandler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateProviderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	out, err := h.providerUseCase.Update(c.Request.Context(), c.Param("id"), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProviderWithOverlapsToResponse(out))
}

// DeleteHandler removes a provider and its vault credentials.
// DELETE /v1/dns-providers/:id
// Returns 204 No Content.
func (h *ProviderHandler) DeleteHandler(c *gin.Context) {
	if err := h.providerUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// TestHandler validates the provider's credential with a low-privilege call.
// POST /v1/dns-providers/:id/test
// Returns 200 OK with success, elapsed time, and error category on failure.
func (h *ProviderHandler) TestHandler(c *gin.Context) {
	result, err := h.providerUseCase.Test(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResolveHandler maps a domain to a provider by longest registered suffix.
// GET /v1/dns-providers/resolve?domain=a.example.com
func (h *ProviderHandler) ResolveHandler(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("domain query parameter is required"), h.logger)
		return
	}

	result, err := h.providerUseCase.Resolve(c.Request.Context(), domain)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResolveResultToResponse(result))
}
