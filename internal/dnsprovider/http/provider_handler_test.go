package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/dnsprovider/http/dto"
	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
	"github.com/certkeep/certkeep/internal/dnsprovider/usecase/mocks"
	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// setupTestHandler creates a test handler with a mocked use case.
func setupTestHandler(t *testing.T) (*ProviderHandler, *mocks.MockProviderUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockProviderUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewProviderHandler(mockUseCase, logger)

	return handler, mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func testProvider() *dnsDomain.DNSProvider {
	now := time.Now().UTC()
	return &dnsDomain.DNSProvider{
		ID:             "0192bbbb-cccc-dddd-eeee-ffff00001111",
		Kind:           dnsDomain.KindCloudflare,
		Label:          "cf-main",
		DomainSuffixes: []string{"example.com"},
		TokenRef:       "sec_0123456789abcdef0123456789abcdef",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestProviderHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		provider := testProvider()

		mockUseCase.On("Create", mock.Anything, mock.MatchedBy(func(input *dnsUseCase.CreateProviderInput) bool {
			return input.Kind == dnsDomain.KindCloudflare && input.Token == "cf-token"
		})).Return(&dnsUseCase.ProviderWithOverlaps{Provider: provider}, nil).Once()

		body := dto.CreateProviderRequest{
			Kind:           "cloudflare",
			Label:          "cf-main",
			DomainSuffixes: []string{"example.com"},
			Credentials:    dto.CredentialsRequest{Token: "cf-token"},
		}
		c, w := createTestContext(http.MethodPost, "/v1/dns-providers", body)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.ProviderWithOverlapsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, provider.ID, response.Provider.ID)
		assert.Equal(t, provider.TokenRef, response.Provider.TokenRef)
		assert.NotContains(t, w.Body.String(), "cf-token")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidKind", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		body := dto.CreateProviderRequest{
			Kind:           "gandi",
			Label:          "bad",
			DomainSuffixes: []string{"example.com"},
		}
		c, w := createTestContext(http.MethodPost, "/v1/dns-providers", body)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})

	t.Run("MissingSuffixes", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		body := dto.CreateProviderRequest{
			Kind:  "manual",
			Label: "manual-fallback",
		}
		c, w := createTestContext(http.MethodPost, "/v1/dns-providers", body)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})
}

func TestProviderHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		provider := testProvider()

		mockUseCase.On("Get", mock.Anything, provider.ID).Return(provider, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/dns-providers/"+provider.ID, nil)
		c.Params = gin.Params{{Key: "id", Value: provider.ID}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProviderResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, provider.ID, response.ID)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/dns-providers/missing", nil)
		c.Params = gin.Params{{Key: "id", Value: "missing"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestProviderHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		provider := testProvider()

		mockUseCase.On("List", mock.Anything, 0, 50).
			Return([]*dnsDomain.DNSProvider{provider}, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/dns-providers", nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListProvidersResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		mockUseCase.AssertExpectations(t)
	})
}

func TestProviderHandler_UpdateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		provider := testProvider()
		provider.Label = "cf-renamed"

		mockUseCase.On("Update", mock.Anything, provider.ID, mock.MatchedBy(func(input *dnsUseCase.UpdateProviderInput) bool {
			return input.Label == "cf-renamed"
		})).Return(&dnsUseCase.ProviderWithOverlaps{Provider: provider}, nil).Once()

		body := dto.UpdateProviderRequest{Label: "cf-renamed"}
		c, w := createTestContext(http.MethodPut, "/v1/dns-providers/"+provider.ID, body)
		c.Params = gin.Params{{Key: "id", Value: provider.ID}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ProviderWithOverlapsResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "cf-renamed", response.Provider.Label)
		mockUseCase.AssertExpectations(t)
	})
}

func TestProviderHandler_DeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Delete", mock.Anything, "provider-1").Return(nil).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/dns-providers/provider-1", nil)
		c.Params = gin.Params{{Key: "id", Value: "provider-1"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestProviderHandler_TestHandler(t *testing.T) {
	t.Run("Failure", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Test", mock.Anything, "provider-1").Return(&dnsUseCase.TestResult{
			Success:       false,
			ElapsedMS:     95,
			Error:         "invalid token",
			ErrorCategory: dnsDomain.CategoryAuthError,
		}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/dns-providers/provider-1/test", nil)
		c.Params = gin.Params{{Key: "id", Value: "provider-1"}}

		handler.TestHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dnsUseCase.TestResult
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Success)
		assert.Equal(t, dnsDomain.CategoryAuthError, response.ErrorCategory)
		mockUseCase.AssertExpectations(t)
	})
}

func TestProviderHandler_ResolveHandler(t *testing.T) {
	t.Run("Match", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		provider := testProvider()

		mockUseCase.On("Resolve", mock.Anything, "www.example.com").Return(&dnsDomain.ResolveResult{
			Provider:      provider,
			MatchedSuffix: "example.com",
		}, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/dns-providers/resolve?domain=www.example.com", nil)

		handler.ResolveHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ResolveResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "example.com", response.MatchedSuffix)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("MissingDomain", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/dns-providers/resolve", nil)

		handler.ResolveHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Resolve")
	})
}
