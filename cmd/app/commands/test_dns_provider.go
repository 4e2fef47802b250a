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

// RunTestDNSProvider validates a provider's stored credential with a
// low-privilege API call. A failed test exits non-zero so scripts can gate
// on it.
//
// Requirements: Database must be migrated, the vault unlocked, and the
// provider API reachable.
func RunTestDNSProvider(
	ctx context.Context,
	useCase dnsUseCase.ProviderUseCase,
	logger *slog.Logger,
	id string,
	format string,
	writer io.Writer,
) error {
	logger.Info("testing DNS provider", slog.String("provider_id", id))

	result, err := useCase.Test(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to test DNS provider: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputTestResultJSON(result, writer)
	} else {
		outputTestResultText(result, writer)
	}

	logger.Info("DNS provider test finished",
		slog.String("provider_id", id),
		slog.Bool("success", result.Success),
		slog.Int64("elapsed_ms", result.ElapsedMS),
	)

	if !result.Success {
		return fmt.Errorf("credential test failed: %s", result.Error)
	}
	return nil
}

// outputTestResultText outputs the test result in human-readable text format.
func outputTestResultText(result *dnsUseCase.TestResult, writer io.Writer) {
	if result.Success {
		_, _ = fmt.Fprintf(writer, "Credential test passed (%dms)\n", result.ElapsedMS)
		return
	}
	_, _ = fmt.Fprintf(writer, "Credential test FAILED (%dms)\n", result.ElapsedMS)
	_, _ = fmt.Fprintf(writer, "Category: %s\n", result.ErrorCategory)
	_, _ = fmt.Fprintf(writer, "Error: %s\n", result.Error)
}

// outputTestResultJSON outputs the test result in JSON format.
func outputTestResultJSON(result *dnsUseCase.TestResult, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
