package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	issuanceUseCase "github.com/certkeep/certkeep/internal/issuance/usecase"
)

// RunIssue starts a certificate issuance run against the selected issuer,
// or against an explicit issuer id when one is given.
// With wait enabled the command polls the run until it reaches a terminal
// state or pauses for manual intervention, printing state changes as they
// happen. Manual runs print the TXT records the operator must publish and
// leave the run paused; `complete` resumes it.
//
// Requirements: Database must be migrated, the vault unlocked, an issuer
// selected with a registered account.
func RunIssue(
	ctx context.Context,
	useCase issuanceUseCase.IssuanceUseCase,
	logger *slog.Logger,
	domains []string,
	issuerID string,
	keyAlgorithm string,
	wait bool,
	pollInterval time.Duration,
	format string,
	writer io.Writer,
) error {
	if len(domains) == 0 {
		return fmt.Errorf("at least one domain is required")
	}

	logger.Info("starting issuance run",
		slog.Any("domains", domains),
		slog.Bool("wait", wait),
	)

	request, err := useCase.Start(ctx, issuanceUseCase.StartInput{
		Domains:      domains,
		KeyAlgorithm: keyAlgorithm,
		IssuerID:     issuerID,
	})
	if err != nil {
		return fmt.Errorf("failed to start issuance: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Issuance run %s started\n", request.ID)

	if wait {
		request, err = waitForRun(ctx, useCase, request, pollInterval, writer)
		if err != nil {
			return err
		}
	}

	// Output result based on format
	if format == "json" {
		outputRequestJSON(request, writer)
	} else {
		outputRequestText(request, writer)
	}

	logger.Info("issuance command finished",
		slog.String("request_id", request.ID),
		slog.String("state", string(request.State)),
	)

	if request.State == issuanceDomain.StateFailed {
		return fmt.Errorf("issuance failed: %s", request.FailureDetail)
	}
	return nil
}

// waitForRun polls the run until it ends or pauses for manual action,
// printing each state change.
func waitForRun(
	ctx context.Context,
	useCase issuanceUseCase.IssuanceUseCase,
	request *issuanceDomain.IssuanceRequest,
	pollInterval time.Duration,
	writer io.Writer,
) (*issuanceDomain.IssuanceRequest, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastState := request.State
	for {
		if request.State.Terminal() || request.State == issuanceDomain.StateManualIntervention {
			return request, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		current, err := useCase.Get(ctx, request.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll issuance run: %w", err)
		}
		request = current

		if request.State != lastState {
			_, _ = fmt.Fprintf(writer, "State: %s\n", request.State)
			lastState = request.State
		}
	}
}

// outputRequestText outputs the run in human-readable text format.
func outputRequestText(request *issuanceDomain.IssuanceRequest, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "\nRequest ID: %s\n", request.ID)
	_, _ = fmt.Fprintf(writer, "Domains: %v\n", request.Domains)
	_, _ = fmt.Fprintf(writer, "State: %s\n", request.State)

	switch request.State {
	case issuanceDomain.StateManualIntervention:
		_, _ = fmt.Fprintln(writer, "\nPublish the following TXT records, then run 'complete':")
		for _, record := range request.Records {
			if record.Manual {
				_, _ = fmt.Fprintf(writer, "  %s TXT %q\n", record.FQDN, record.Value)
			}
		}
	case issuanceDomain.StateCompleted:
		_, _ = fmt.Fprintf(writer, "Certificate ID: %s\n", request.CertificateID)
	case issuanceDomain.StateFailed:
		_, _ = fmt.Fprintf(writer, "Failure category: %s\n", request.FailureCategory)
		_, _ = fmt.Fprintf(writer, "Failure detail: %s\n", request.FailureDetail)
		_, _ = fmt.Fprintf(writer, "Retryable: %t\n", request.Retryable)
	}
}

// outputRequestJSON outputs the run in JSON format for machine consumption.
func outputRequestJSON(request *issuanceDomain.IssuanceRequest, writer io.Writer) {
	jsonBytes, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
