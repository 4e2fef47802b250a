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

// RunCreateIssuer registers an ACME issuer and provisions its account key in
// the vault. The key never leaves the vault; only its reference is printed.
// Outputs the issuer in either text or JSON format.
//
// Requirements: Database must be migrated and the vault KMS key configured.
func RunCreateIssuer(
	ctx context.Context,
	useCase issuerUseCase.IssuerUseCase,
	logger *slog.Logger,
	label string,
	environment string,
	directoryURL string,
	contactEmail string,
	tosAgreed bool,
	keyAlgorithm string,
	format string,
	io IOTuple,
) error {
	logger.Info("creating issuer",
		slog.String("label", label),
		slog.String("environment", environment),
	)

	env, err := parseEnvironment(environment)
	if err != nil {
		return err
	}

	input := issuerUseCase.CreateIssuerInput{
		Label:        label,
		Environment:  env,
		DirectoryURL: directoryURL,
		ContactEmail: contactEmail,
		TosAgreed:    tosAgreed,
		KeyAlgorithm: keyAlgorithm,
	}

	issuer, err := useCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create issuer: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputIssuerJSON(issuer, io.Writer)
	} else {
		outputIssuerText(issuer, io.Writer)
	}

	logger.Info("issuer created successfully",
		slog.String("issuer_id", issuer.ID),
		slog.Bool("is_selected", issuer.IsSelected),
	)

	return nil
}

// outputIssuerText outputs the issuer in human-readable text format.
func outputIssuerText(issuer *issuerDomain.IssuerConfig, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nIssuer created successfully!")
	_, _ = fmt.Fprintf(writer, "Issuer ID: %s\n", issuer.ID)
	_, _ = fmt.Fprintf(writer, "Label: %s\n", issuer.Label)
	_, _ = fmt.Fprintf(writer, "Environment: %s\n", issuer.Environment)
	_, _ = fmt.Fprintf(writer, "Directory URL: %s\n", issuer.Directory())
	_, _ = fmt.Fprintf(writer, "Account key ref: %s\n", issuer.AccountKeyRef)
	_, _ = fmt.Fprintf(writer, "Selected: %t\n", issuer.IsSelected)
	if issuer.ContactEmail == "" || !issuer.TosAgreed {
		_, _ = fmt.Fprintln(writer, "\nNOTE: Account registration requires a contact email and --agree-tos.")
	}
}

// outputIssuerJSON outputs the issuer in JSON format for machine consumption.
func outputIssuerJSON(issuer *issuerDomain.IssuerConfig, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(issuer, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
