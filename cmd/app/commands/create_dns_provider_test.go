package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
	dnsMocks "github.com/certkeep/certkeep/internal/dnsprovider/usecase/mocks"
)

func TestRunCreateDNSProvider(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-with-overlap", func(t *testing.T) {
		mockUseCase := &dnsMocks.MockProviderUseCase{}
		input := &dnsUseCase.CreateProviderInput{
			Kind:           dnsDomain.KindCloudflare,
			Label:          "cf-main",
			DomainSuffixes: []string{"example.com"},
			Token:          "cf-token",
		}
		output := &dnsUseCase.ProviderWithOverlaps{
			Provider: &dnsDomain.DNSProvider{
				ID:             "provider-1",
				Kind:           dnsDomain.KindCloudflare,
				Label:          "cf-main",
				DomainSuffixes: []string{"example.com"},
				TokenRef:       "dns/provider-1/token",
			},
			Overlaps: []*dnsDomain.DNSProvider{
				{ID: "provider-0", Label: "cf-old", DomainSuffixes: []string{"example.com"}},
			},
		}

		mockUseCase.On("Create", ctx, input).Return(output, nil)

		var out bytes.Buffer
		err := RunCreateDNSProvider(
			ctx,
			mockUseCase,
			logger,
			"cloudflare",
			"cf-main",
			[]string{"example.com"},
			"cf-token",
			"",
			"",
			"text",
			IOTuple{Writer: &out},
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "provider-1")
		require.Contains(t, out.String(), "WARNING: suffix overlap")
		require.NotContains(t, out.String(), "cf-token")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-kind", func(t *testing.T) {
		mockUseCase := &dnsMocks.MockProviderUseCase{}

		var out bytes.Buffer
		err := RunCreateDNSProvider(
			ctx,
			mockUseCase,
			logger,
			"gandi",
			"label",
			[]string{"example.com"},
			"",
			"",
			"",
			"text",
			IOTuple{Writer: &out},
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid provider kind")
		mockUseCase.AssertNotCalled(t, "Create")
	})
}
