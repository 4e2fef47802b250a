package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
)

// RunSelectIssuer marks an issuer as the one used for new issuance runs.
// Selection is exclusive: the previously selected issuer is deselected in the
// same transaction.
//
// Requirements: Database must be migrated and accessible.
func RunSelectIssuer(
	ctx context.Context,
	useCase issuerUseCase.IssuerUseCase,
	logger *slog.Logger,
	id string,
	writer io.Writer,
) error {
	logger.Info("selecting issuer", slog.String("issuer_id", id))

	if err := useCase.Select(ctx, id); err != nil {
		return fmt.Errorf("failed to select issuer: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Issuer %s is now selected\n", id)

	logger.Info("issuer selected successfully", slog.String("issuer_id", id))
	return nil
}
