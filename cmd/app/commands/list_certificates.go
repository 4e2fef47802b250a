package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
	certinvUseCase "github.com/certkeep/certkeep/internal/certinv/usecase"
)

// RunListCertificates lists stored certificates, newest first. With a
// non-zero expiring window only certificates expiring inside the window are
// listed. Only metadata is printed; chains are served by the API and keys
// stay in the vault.
//
// Requirements: Database must be migrated and accessible.
func RunListCertificates(
	ctx context.Context,
	inventory certinvUseCase.CertInventory,
	logger *slog.Logger,
	expiringWithin time.Duration,
	offset int,
	limit int,
	format string,
	writer io.Writer,
) error {
	logger.Info("listing certificates",
		slog.Duration("expiring_within", expiringWithin),
	)

	var certificates []*certinvDomain.CertificateRecord
	var err error

	if expiringWithin > 0 {
		certificates, err = inventory.ListExpiring(ctx, expiringWithin)
	} else {
		certificates, err = inventory.List(ctx, offset, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCertificatesJSON(certificates, writer)
	} else {
		outputCertificatesText(certificates, writer)
	}

	logger.Info("certificates listed", slog.Int("count", len(certificates)))
	return nil
}

// outputCertificatesText outputs certificates in human-readable text format.
func outputCertificatesText(certificates []*certinvDomain.CertificateRecord, writer io.Writer) {
	if len(certificates) == 0 {
		_, _ = fmt.Fprintln(writer, "No certificates found")
		return
	}

	for _, cert := range certificates {
		_, _ = fmt.Fprintf(writer, "%s  %v\n", cert.ID, cert.Domains)
		_, _ = fmt.Fprintf(writer, "  Source: %s\n", cert.Source)
		_, _ = fmt.Fprintf(writer, "  Serial: %s\n", cert.SerialNumber)
		_, _ = fmt.Fprintf(writer, "  Expires: %s\n", cert.NotAfter.Format(time.RFC3339))
		if len(cert.Tags) > 0 {
			_, _ = fmt.Fprintf(writer, "  Tags: %v\n", cert.Tags)
		}
	}
}

// outputCertificatesJSON outputs certificates in JSON format.
func outputCertificatesJSON(certificates []*certinvDomain.CertificateRecord, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(certificates, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
