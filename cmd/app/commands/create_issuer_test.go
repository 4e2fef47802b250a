package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
	issuerMocks "github.com/certkeep/certkeep/internal/issuer/usecase/mocks"
)

func TestRunCreateIssuer(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text", func(t *testing.T) {
		mockUseCase := &issuerMocks.MockIssuerUseCase{}
		input := issuerUseCase.CreateIssuerInput{
			Label:        "staging-le",
			Environment:  issuerDomain.EnvironmentStaging,
			ContactEmail: "ops@example.com",
			TosAgreed:    true,
			KeyAlgorithm: "P256",
		}
		issuer := &issuerDomain.IssuerConfig{
			ID:            "issuer-1",
			Label:         "staging-le",
			Environment:   issuerDomain.EnvironmentStaging,
			ContactEmail:  "ops@example.com",
			TosAgreed:     true,
			AccountKeyRef: "acme/account/issuer-1",
			IsSelected:    true,
		}

		mockUseCase.On("Create", ctx, input).Return(issuer, nil)

		var out bytes.Buffer
		err := RunCreateIssuer(
			ctx,
			mockUseCase,
			logger,
			"staging-le",
			"staging",
			"",
			"ops@example.com",
			true,
			"P256",
			"text",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "issuer-1")
		require.Contains(t, out.String(), "acme/account/issuer-1")
		require.Contains(t, out.String(), "Selected: true")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &issuerMocks.MockIssuerUseCase{}
		issuer := &issuerDomain.IssuerConfig{
			ID:          "issuer-2",
			Label:       "prod-le",
			Environment: issuerDomain.EnvironmentProduction,
			TosAgreed:   true,
		}

		mockUseCase.On("Create", ctx, issuerUseCase.CreateIssuerInput{
			Label:        "prod-le",
			Environment:  issuerDomain.EnvironmentProduction,
			TosAgreed:    true,
			KeyAlgorithm: "P384",
		}).Return(issuer, nil)

		var out bytes.Buffer
		err := RunCreateIssuer(
			ctx,
			mockUseCase,
			logger,
			"prod-le",
			"production",
			"",
			"",
			true,
			"P384",
			"json",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), `"id": "issuer-2"`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-environment", func(t *testing.T) {
		mockUseCase := &issuerMocks.MockIssuerUseCase{}

		var out bytes.Buffer
		err := RunCreateIssuer(
			ctx,
			mockUseCase,
			logger,
			"bad",
			"sandbox",
			"",
			"",
			false,
			"P256",
			"text",
			IOTuple{Writer: &out},
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid environment")
		mockUseCase.AssertNotCalled(t, "Create")
	})
}
