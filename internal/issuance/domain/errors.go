package domain

import (
	"context"
	"errors"
	"fmt"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// FailureCategory classifies why an issuance run failed.
type FailureCategory string

// Failure categories.
const (
	FailureDNSTimeout FailureCategory = "dns_timeout"
	FailureFinalize   FailureCategory = "finalize_failed"
	FailureCancelled  FailureCategory = "cancelled"
	FailureDNS        FailureCategory = "dns_error"
	FailureAcme       FailureCategory = "acme_error"
)

// Sentinel errors for the issuance module.
var (
	ErrRequestNotFound = fmt.Errorf("issuance request %w", apperrors.ErrNotFound)
	ErrRequestTerminal = apperrors.Wrap(apperrors.ErrInvalidInput, "issuance request already finished")
	ErrNotAwaitingUser = apperrors.Wrap(apperrors.ErrInvalidInput, "issuance request is not waiting for manual intervention")
	ErrNotRetryable    = apperrors.Wrap(apperrors.ErrInvalidInput, "issuance request is not in a retryable failure state")
)

// OrchestratorError is a categorized issuance failure. Retryable failures
// keep the run's ACME order so a retry can resume instead of restarting.
type OrchestratorError struct {
	Category  FailureCategory
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *OrchestratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("issuance %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("issuance %s", e.Category)
}

// Unwrap returns the underlying error.
func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// NewDNSTimeoutError reports that propagation never converged in budget.
func NewDNSTimeoutError(err error) *OrchestratorError {
	return &OrchestratorError{Category: FailureDNSTimeout, Retryable: true, Err: err}
}

// NewFinalizeError reports a failed ACME finalize step.
func NewFinalizeError(err error) *OrchestratorError {
	return &OrchestratorError{Category: FailureFinalize, Retryable: true, Err: err}
}

// NewCancelledError reports a user-cancelled run.
func NewCancelledError() *OrchestratorError {
	return &OrchestratorError{Category: FailureCancelled, Err: context.Canceled}
}

// Categorize maps any error from an issuance run to a failure category.
func Categorize(err error) (FailureCategory, bool) {
	var orchErr *OrchestratorError
	if errors.As(err, &orchErr) {
		return orchErr.Category, orchErr.Retryable
	}
	if errors.Is(err, context.Canceled) {
		return FailureCancelled, false
	}
	var adapterErr *dnsDomain.AdapterError
	if errors.As(err, &adapterErr) {
		return FailureDNS, false
	}
	return FailureAcme, false
}
