package domain

import (
	"errors"
	"fmt"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// AcmeErrorCategory classifies failures from the ACME exchange.
type AcmeErrorCategory string

// ACME error categories.
const (
	AcmeAccountNotReady   AcmeErrorCategory = "account_not_ready"
	AcmeChallengeRejected AcmeErrorCategory = "challenge_rejected"
	AcmeRateLimited       AcmeErrorCategory = "rate_limited"
	AcmeValidationFailed  AcmeErrorCategory = "validation_failed"
	AcmeNetworkError      AcmeErrorCategory = "network_error"
)

// Issuer configuration errors.
var (
	ErrIssuerNotFound     = fmt.Errorf("issuer %w", apperrors.ErrNotFound)
	ErrNoIssuerSelected   = fmt.Errorf("no issuer selected: %w", apperrors.ErrNotFound)
	ErrAccountNotReady    = apperrors.Wrap(apperrors.ErrInvalidInput, "contact email and terms-of-service agreement are required")
	ErrInvalidEnvironment = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid environment")
)

// AcmeError is a categorized ACME failure. Detail carries the CA's
// problem-document detail verbatim so the user sees the CA's own explanation.
type AcmeError struct {
	Category AcmeErrorCategory
	Detail   string
	Err      error
}

// Error implements the error interface.
func (e *AcmeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("acme %s: %s", e.Category, e.Detail)
	}
	return fmt.Sprintf("acme %s", e.Category)
}

// Unwrap returns the underlying cause.
func (e *AcmeError) Unwrap() error {
	return e.Err
}

// NewAcmeError creates a categorized ACME error.
func NewAcmeError(category AcmeErrorCategory, detail string, err error) *AcmeError {
	return &AcmeError{Category: category, Detail: detail, Err: err}
}

// CategorizeAcme extracts the ACME error category, defaulting to
// network_error for uncategorized failures.
func CategorizeAcme(err error) AcmeErrorCategory {
	var acmeErr *AcmeError
	if errors.As(err, &acmeErr) {
		return acmeErr.Category
	}
	return AcmeNetworkError
}
