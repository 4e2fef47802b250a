package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
)

// RunEnsureAccount registers the issuer's account key with the CA. The call
// is idempotent: an already registered account is reported as such.
//
// Requirements: Database must be migrated, the vault unlocked, and the ACME
// directory reachable.
func RunEnsureAccount(
	ctx context.Context,
	useCase issuerUseCase.IssuerUseCase,
	logger *slog.Logger,
	id string,
	format string,
	writer io.Writer,
) error {
	logger.Info("ensuring ACME account", slog.String("issuer_id", id))

	issuer, err := useCase.EnsureAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputAccountJSON(issuer, writer)
	} else {
		outputAccountText(issuer, writer)
	}

	logger.Info("ACME account ready", slog.String("issuer_id", issuer.ID))
	return nil
}

// outputAccountText outputs the account status in human-readable text format.
func outputAccountText(issuer *issuerDomain.IssuerConfig, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "ACME account registered")
	_, _ = fmt.Fprintf(writer, "Issuer ID: %s\n", issuer.ID)
	_, _ = fmt.Fprintf(writer, "Directory URL: %s\n", issuer.Directory())
	_, _ = fmt.Fprintf(writer, "Contact email: %s\n", issuer.ContactEmail)
}

// outputAccountJSON outputs the account status in JSON format.
func outputAccountJSON(issuer *issuerDomain.IssuerConfig, writer io.Writer) {
	result := map[string]string{
		"issuer_id":     issuer.ID,
		"directory_url": issuer.Directory(),
		"contact_email": issuer.ContactEmail,
		"status":        "registered",
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
