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

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	"github.com/certkeep/certkeep/internal/issuer/http/dto"
	"github.com/certkeep/certkeep/internal/issuer/usecase/mocks"
)

// setupTestHandler creates a test handler with a mocked use case.
func setupTestHandler(t *testing.T) (*IssuerHandler, *mocks.MockIssuerUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockIssuerUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewIssuerHandler(mockUseCase, logger)

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

func testIssuer() *issuerDomain.IssuerConfig {
	now := time.Now().UTC()
	return &issuerDomain.IssuerConfig{
		ID:            "0192aaaa-bbbb-cccc-dddd-eeeeffff0001",
		Label:         "staging issuer",
		Environment:   issuerDomain.EnvironmentStaging,
		ContactEmail:  "ops@example.com",
		AccountKeyRef: "sec_0123456789abcdef0123456789abcdef",
		TosAgreed:     true,
		IsSelected:    true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestIssuerHandler_CreateHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.CreateIssuerRequest{
			Label:        "staging issuer",
			Environment:  "staging",
			ContactEmail: "ops@example.com",
			TosAgreed:    true,
		}

		mockUseCase.On("Create", mock.Anything, request.ToInput()).Return(testIssuer(), nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/issuers", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.IssuerResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "staging issuer", response.Label)
		assert.NotEmpty(t, response.AccountKeyRef)
		assert.NotContains(t, w.Body.String(), "PRIVATE KEY")

		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidEnvironment", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.CreateIssuerRequest{
			Label:       "bad issuer",
			Environment: "sandbox",
		}

		c, w := createTestContext(http.MethodPost, "/v1/issuers", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		request := dto.CreateIssuerRequest{
			Label:        "bad issuer",
			Environment:  "staging",
			ContactEmail: "not-an-email",
		}

		c, w := createTestContext(http.MethodPost, "/v1/issuers", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})
}

func TestIssuerHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		issuer := testIssuer()

		mockUseCase.On("Get", mock.Anything, issuer.ID).Return(issuer, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/issuers/"+issuer.ID, nil)
		c.Params = gin.Params{{Key: "id", Value: issuer.ID}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Get", mock.Anything, "missing").Return(nil, issuerDomain.ErrIssuerNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/issuers/missing", nil)
		c.Params = gin.Params{{Key: "id", Value: "missing"}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_GetSelectedHandler(t *testing.T) {
	t.Run("Error_NoneSelected", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("GetSelected", mock.Anything).Return(nil, issuerDomain.ErrNoIssuerSelected).Once()

		c, w := createTestContext(http.MethodGet, "/v1/issuers/selected", nil)
		handler.GetSelectedHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_ListHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		issuers := []*issuerDomain.IssuerConfig{testIssuer()}

		mockUseCase.On("List", mock.Anything, 0, 50).Return(issuers, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/issuers", nil)
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListIssuersResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Issuers, 1)

		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_UpdateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		issuer := testIssuer()

		tosAgreed := true
		request := dto.UpdateIssuerRequest{TosAgreed: &tosAgreed}

		mockUseCase.On("Update", mock.Anything, issuer.ID, request.ToInput()).Return(issuer, nil).Once()

		c, w := createTestContext(http.MethodPut, "/v1/issuers/"+issuer.ID, request)
		c.Params = gin.Params{{Key: "id", Value: issuer.ID}}
		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_SelectHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Select", mock.Anything, "issuer-1").Return(nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/issuers/issuer-1/select", nil)
		c.Params = gin.Params{{Key: "id", Value: "issuer-1"}}
		handler.SelectHandler(c)
		// c.Status defers the write until the response body is touched.
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_EnsureAccountHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		issuer := testIssuer()

		mockUseCase.On("EnsureAccount", mock.Anything, issuer.ID).Return(issuer, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/issuers/"+issuer.ID+"/ensure-account", nil)
		c.Params = gin.Params{{Key: "id", Value: issuer.ID}}
		handler.EnsureAccountHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NotReady", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("EnsureAccount", mock.Anything, "issuer-1").
			Return(nil, issuerDomain.ErrAccountNotReady).Once()

		c, w := createTestContext(http.MethodPost, "/v1/issuers/issuer-1/ensure-account", nil)
		c.Params = gin.Params{{Key: "id", Value: "issuer-1"}}
		handler.EnsureAccountHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}

func TestIssuerHandler_DeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Delete", mock.Anything, "issuer-1").Return(nil).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/issuers/issuer-1", nil)
		c.Params = gin.Params{{Key: "id", Value: "issuer-1"}}
		handler.DeleteHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUseCase.AssertExpectations(t)
	})
}
