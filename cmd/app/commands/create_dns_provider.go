package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
)

// RunCreateDNSProvider registers a DNS provider for challenge publication.
// Credentials go straight into the vault; only their references are printed.
// Overlapping suffix registrations are reported but do not block creation.
//
// Requirements: Database must be migrated and the vault KMS key configured.
func RunCreateDNSProvider(
	ctx context.Context,
	useCase dnsUseCase.ProviderUseCase,
	logger *slog.Logger,
	kind string,
	label string,
	domainSuffixes []string,
	token string,
	accessKey string,
	secretKey string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating DNS provider",
		slog.String("kind", kind),
		slog.String("label", label),
	)

	providerKind, err := parseProviderKind(kind)
	if err != nil {
		return err
	}

	input := &dnsUseCase.CreateProviderInput{
		Kind:           providerKind,
		Label:          label,
		DomainSuffixes: domainSuffixes,
		Token:          token,
		AccessKey:      accessKey,
		SecretKey:      secretKey,
	}

	output, err := useCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create DNS provider: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputProviderJSON(output, io.Writer)
	} else {
		outputProviderText(output, io.Writer)
	}

	logger.Info("DNS provider created successfully",
		slog.String("provider_id", output.Provider.ID),
		slog.Int("overlaps", len(output.Overlaps)),
	)

	return nil
}

// outputProviderText outputs the provider in human-readable text format.
func outputProviderText(output *dnsUseCase.ProviderWithOverlaps, writer io.Writer) {
	provider := output.Provider
	_, _ = fmt.Fprintln(writer, "\nDNS provider created successfully!")
	_, _ = fmt.Fprintf(writer, "Provider ID: %s\n", provider.ID)
	_, _ = fmt.Fprintf(writer, "Kind: %s\n", provider.Kind)
	_, _ = fmt.Fprintf(writer, "Label: %s\n", provider.Label)
	_, _ = fmt.Fprintf(writer, "Domain suffixes: %v\n", provider.DomainSuffixes)

	if len(output.Overlaps) > 0 {
		_, _ = fmt.Fprintln(writer, "\nWARNING: suffix overlap with existing providers:")
		for _, overlap := range output.Overlaps {
			_, _ = fmt.Fprintf(writer, "  %s (%s) %v\n", overlap.Label, overlap.ID, overlap.DomainSuffixes)
		}
	}
}

// outputProviderJSON outputs the provider in JSON format for machine consumption.
func outputProviderJSON(output *dnsUseCase.ProviderWithOverlaps, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
