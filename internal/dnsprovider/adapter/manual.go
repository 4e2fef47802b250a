package adapter

import (
	"context"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// manualAdapter is the human-in-the-loop variant. The record name and value
// are surfaced to the user as instructions; only propagation verification
// touches the network.
type manualAdapter struct {
	resolver *DoHResolver
}

// NewManual creates the manual adapter.
func NewManual(resolver *DoHResolver) Adapter {
	return &manualAdapter{resolver: resolver}
}

func (a *manualAdapter) Kind() dnsDomain.ProviderKind {
	return dnsDomain.KindManual
}

// PresentTXT is a no-op: the user publishes the record out of band.
func (a *manualAdapter) PresentTXT(context.Context, string, string) error {
	return nil
}

// CleanupTXT is a no-op: the user removes the record out of band.
func (a *manualAdapter) CleanupTXT(context.Context, string, string) error {
	return nil
}

func (a *manualAdapter) VerifyPropagation(ctx context.Context, fqdn, value string) (dnsDomain.RecordState, error) {
	values, err := a.resolver.LookupTXT(ctx, fqdn)
	return classifyLookup(values, value, err), nil
}

// ValidateCredentials always succeeds: there is no credential to validate.
func (a *manualAdapter) ValidateCredentials(context.Context) error {
	return nil
}
