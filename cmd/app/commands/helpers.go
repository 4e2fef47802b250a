// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/certkeep/certkeep/internal/app"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// parseEnvironment converts an environment string to issuerDomain.Environment.
// Returns an error if the environment string is invalid.
func parseEnvironment(environment string) (issuerDomain.Environment, error) {
	env := issuerDomain.Environment(environment)
	if !env.Valid() {
		return "", fmt.Errorf(
			"invalid environment: %s (valid options: staging, production)",
			environment,
		)
	}
	return env, nil
}

// parseProviderKind converts a provider kind string to dnsDomain.ProviderKind.
// Returns an error if the kind string is invalid.
func parseProviderKind(kind string) (dnsDomain.ProviderKind, error) {
	k := dnsDomain.ProviderKind(kind)
	if !k.Valid() {
		return "", fmt.Errorf(
			"invalid provider kind: %s (valid options: manual, cloudflare, digitalocean, route53)",
			kind,
		)
	}
	return k, nil
}
