package http

import (
	"bytes"
	"encoding/base64"
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

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
	"github.com/certkeep/certkeep/internal/vault/http/dto"
	"github.com/certkeep/certkeep/internal/vault/usecase/mocks"
)

// setupTestHandler creates a test handler with a mocked secret store.
func setupTestHandler(t *testing.T) (*SecretHandler, *mocks.MockSecretStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockStore := &mocks.MockSecretStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewSecretHandler(mockStore, logger)

	return handler, mockStore
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

func TestSecretHandler_CreateHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		value := []byte("cloudflare-api-token")
		now := time.Now().UTC()

		request := dto.CreateSecretRequest{
			Kind:  string(vaultDomain.KindDNSProviderToken),
			Label: "cf token",
			Value: base64.StdEncoding.EncodeToString(value),
		}

		expectedRef := &vaultDomain.SecretRef{
			ID:        "sec_0123456789abcdef0123456789abcdef",
			Kind:      vaultDomain.KindDNSProviderToken,
			Label:     "cf token",
			CreatedAt: now,
			UpdatedAt: now,
		}

		mockStore.On("Create", mock.Anything, vaultDomain.KindDNSProviderToken, "cf token", value).
			Return(expectedRef, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/secrets", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.SecretResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, expectedRef.ID, response.ID)
		assert.Equal(t, string(vaultDomain.KindDNSProviderToken), response.Kind)
		assert.Equal(t, "cf token", response.Label)
		assert.NotContains(t, w.Body.String(), request.Value)

		mockStore.AssertExpectations(t)
	})

	t.Run("Error_InvalidKind", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		request := dto.CreateSecretRequest{
			Kind:  "passport",
			Value: base64.StdEncoding.EncodeToString([]byte("v")),
		}

		c, w := createTestContext(http.MethodPost, "/v1/secrets", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockStore.AssertNotCalled(t, "Create")
	})

	t.Run("Error_InvalidBase64", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		request := dto.CreateSecretRequest{
			Kind:  string(vaultDomain.KindDNSProviderToken),
			Value: "not base64!!!",
		}

		c, w := createTestContext(http.MethodPost, "/v1/secrets", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockStore.AssertNotCalled(t, "Create")
	})
}

func TestSecretHandler_UpdateHandler(t *testing.T) {
	t.Run("Success_RotatesValue", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		id := "sec_0123456789abcdef0123456789abcdef"
		value := []byte("rotated")

		request := dto.UpdateSecretRequest{
			Value: base64.StdEncoding.EncodeToString(value),
		}

		expectedRef := &vaultDomain.SecretRef{
			ID:   id,
			Kind: vaultDomain.KindDNSProviderToken,
		}

		mockStore.On("Update", mock.Anything, id, value, "").
			Return(expectedRef, nil).
			Once()

		c, w := createTestContext(http.MethodPut, "/v1/secrets/"+id, request)
		c.Params = gin.Params{{Key: "id", Value: id}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SecretResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, id, response.ID)

		mockStore.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		request := dto.UpdateSecretRequest{
			Value: base64.StdEncoding.EncodeToString([]byte("v")),
		}

		mockStore.On("Update", mock.Anything, "sec_missing", []byte("v"), "").
			Return(nil, vaultDomain.ErrSecretNotFound).
			Once()

		c, w := createTestContext(http.MethodPut, "/v1/secrets/sec_missing", request)
		c.Params = gin.Params{{Key: "id", Value: "sec_missing"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockStore.AssertExpectations(t)
	})
}

func TestSecretHandler_GetHandler(t *testing.T) {
	t.Run("Success_ReturnsMetadataOnly", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		id := "sec_0123456789abcdef0123456789abcdef"
		expectedRef := &vaultDomain.SecretRef{
			ID:    id,
			Kind:  vaultDomain.KindAcmeAccountKey,
			Label: "account key",
		}

		mockStore.On("Get", mock.Anything, id).
			Return(expectedRef, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/secrets/"+id, nil)
		c.Params = gin.Params{{Key: "id", Value: id}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SecretResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, id, response.ID)
		assert.Equal(t, string(vaultDomain.KindAcmeAccountKey), response.Kind)

		mockStore.AssertExpectations(t)
	})
}

func TestSecretHandler_DeleteHandler(t *testing.T) {
	t.Run("Success_NoContent", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		id := "sec_0123456789abcdef0123456789abcdef"
		mockStore.On("Delete", mock.Anything, id).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodDelete, "/v1/secrets/"+id, nil)
		c.Params = gin.Params{{Key: "id", Value: id}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		mockStore.On("Delete", mock.Anything, "sec_missing").
			Return(vaultDomain.ErrSecretNotFound).
			Once()

		c, w := createTestContext(http.MethodDelete, "/v1/secrets/sec_missing", nil)
		c.Params = gin.Params{{Key: "id", Value: "sec_missing"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockStore.AssertExpectations(t)
	})
}

func TestSecretHandler_ListHandler(t *testing.T) {
	t.Run("Success_ReturnsReferences", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		refs := []*vaultDomain.SecretRef{
			{ID: "sec_a", Kind: vaultDomain.KindDNSProviderToken},
			{ID: "sec_b", Kind: vaultDomain.KindAcmeAccountKey},
		}

		mockStore.On("List", mock.Anything, 0, 50).
			Return(refs, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/secrets", nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListSecretsResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Len(t, response.Data, 2)

		mockStore.AssertExpectations(t)
	})
}

func TestSecretHandler_VaultLifecycle(t *testing.T) {
	t.Run("Lock", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		mockStore.On("Lock").Return().Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/lock", nil)

		handler.LockHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("Status", func(t *testing.T) {
		handler, mockStore := setupTestHandler(t)

		mockStore.On("Locked").Return(true).Once()

		c, w := createTestContext(http.MethodGet, "/v1/vault/status", nil)

		handler.StatusHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.VaultStatusResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response.Locked)

		mockStore.AssertExpectations(t)
	})
}
