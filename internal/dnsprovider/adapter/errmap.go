package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// mapHTTPStatus translates a provider API status code into the adapter error
// taxonomy. The body is never included in the message.
func mapHTTPStatus(kind dnsDomain.ProviderKind, status int, operation string) error {
	var category dnsDomain.ErrorCategory
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = dnsDomain.CategoryAuthError
	case status == http.StatusNotFound:
		category = dnsDomain.CategoryNotFound
	case status == http.StatusTooManyRequests:
		category = dnsDomain.CategoryRateLimited
	default:
		category = dnsDomain.CategoryUnknown
	}

	message := fmt.Sprintf("%s returned status %d", operation, status)
	return dnsDomain.NewAdapterError(kind, category, message, nil)
}

// mapTransportError translates request-level failures (DNS resolution,
// connection refused, timeouts) into the taxonomy.
func mapTransportError(kind dnsDomain.ProviderKind, operation string, err error) error {
	category := dnsDomain.CategoryNetworkError

	var netErr net.Error
	switch {
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		category = dnsDomain.CategoryNetworkError
	case errors.Is(err, context.Canceled):
		return err
	}

	message := fmt.Sprintf("%s failed", operation)
	return dnsDomain.NewAdapterError(kind, category, message, err)
}
