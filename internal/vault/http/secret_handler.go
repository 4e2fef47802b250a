// Package http provides HTTP handlers for the secret vault. Credential
// values are write-only at this boundary: handlers accept bytes on create
// and update and return reference metadata everywhere.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certkeep/certkeep/internal/httputil"
	customValidation "github.com/certkeep/certkeep/internal/validation"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
	"github.com/certkeep/certkeep/internal/vault/http/dto"
	vaultUseCase "github.com/certkeep/certkeep/internal/vault/usecase"
)

// SecretHandler handles HTTP requests for credential storage operations.
type SecretHandler struct {
	secretStore vaultUseCase.SecretStore
	logger      *slog.Logger
}

// NewSecretHandler creates a new secret handler with required dependencies.
func NewSecretHandler(secretStore vaultUseCase.SecretStore, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		secretStore: secretStore,
		logger:      logger,
	}
}

// CreateHandler stores a new credential.
// POST /v1/secrets
// Returns 201 Created with reference metadata only.
func (h *SecretHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateSecretRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
		return
	}
	defer vaultDomain.Zero(value)

	ref, err := h.secretStore.Create(c.Request.Context(), vaultDomain.SecretKind(req.Kind), req.Label, value)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSecretRefToResponse(ref))
}

// UpdateHandler rotates a stored credential in place. The reference id stays
// stable so configured providers and issuers keep working.
// PUT /v1/secrets/:id
// Returns 200 OK with reference metadata only.
func (h *SecretHandler) UpdateHandler(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdateSecretRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
		return
	}
	defer vaultDomain.Zero(value)

	ref, err := h.secretStore.Update(c.Request.Context(), id, value, req.Label)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretRefToResponse(ref))
}

// GetHandler returns reference metadata for one credential.
// GET /v1/secrets/:id
func (h *SecretHandler) GetHandler(c *gin.Context) {
	ref, err := h.secretStore.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretRefToResponse(ref))
}

// DeleteHandler removes a credential permanently.
// DELETE /v1/secrets/:id
// Returns 204 No Content.
func (h *SecretHandler) DeleteHandler(c *gin.Context) {
	if err := h.secretStore.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ListHandler returns credential references with pagination support.
// GET /v1/secrets?offset=0&limit=50
func (h *SecretHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	refs, err := h.secretStore.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSecretRefsToListResponse(refs))
}

// LockHandler re-locks the vault immediately.
// POST /v1/vault/lock
// Returns 204 No Content.
func (h *SecretHandler) LockHandler(c *gin.Context) {
	h.secretStore.Lock()
	c.Data(http.StatusNoContent, "application/json", nil)
}

// StatusHandler reports the current vault lock state.
// GET /v1/vault/status
func (h *SecretHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.VaultStatusResponse{Locked: h.secretStore.Locked()})
}
