package domain

import (
	"errors"
	"fmt"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// ErrorCategory is the fixed taxonomy every adapter maps provider and
// transport failures into, so callers react uniformly regardless of provider.
type ErrorCategory string

// Adapter error categories.
const (
	CategoryAuthError    ErrorCategory = "auth_error"
	CategoryNotFound     ErrorCategory = "not_found"
	CategoryRateLimited  ErrorCategory = "rate_limited"
	CategoryNetworkError ErrorCategory = "network_error"
	CategoryUnknown      ErrorCategory = "unknown"
)

// Provider configuration errors.
var (
	ErrProviderNotFound = fmt.Errorf("dns provider %w", apperrors.ErrNotFound)
	ErrInvalidKind      = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid provider kind")
	ErrNoProviderMatch  = fmt.Errorf("no provider matches domain: %w", apperrors.ErrNotFound)
)

// AdapterError is a categorized provider or transport failure. The message is
// safe to surface to the user; raw provider response bodies are never carried.
type AdapterError struct {
	Category ErrorCategory
	Kind     ProviderKind
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Category)
}

// Unwrap returns the underlying cause.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a categorized adapter error.
func NewAdapterError(kind ProviderKind, category ErrorCategory, message string, err error) *AdapterError {
	return &AdapterError{Category: category, Kind: kind, Message: message, Err: err}
}

// Categorize extracts the error category from an adapter error chain,
// returning CategoryUnknown for anything uncategorized.
func Categorize(err error) ErrorCategory {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Category
	}
	return CategoryUnknown
}
