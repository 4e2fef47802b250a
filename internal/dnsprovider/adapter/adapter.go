// Package adapter implements the DNS challenge capability interface: one
// implementation per provider kind, sharing zone discovery, error mapping,
// and DNS-over-HTTPS propagation checks.
package adapter

import (
	"context"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// Adapter is the capability surface every provider variant implements.
// Credential resolution happens strictly inside the adapter, at call time,
// through the vault reference on the owning provider config.
type Adapter interface {
	// Kind identifies the adapter variant.
	Kind() dnsDomain.ProviderKind

	// PresentTXT publishes (or upserts) the TXT record. A second call for the
	// same name must not create a duplicate. For the manual adapter this is a
	// no-op: the record name and value are surfaced to the user instead.
	PresentTXT(ctx context.Context, fqdn, value string) error

	// CleanupTXT removes the record this run created. Best effort; callers
	// invoke it regardless of issuance outcome.
	CleanupTXT(ctx context.Context, fqdn, value string) error

	// VerifyPropagation performs a live TXT lookup and classifies the result.
	VerifyPropagation(ctx context.Context, fqdn, value string) (dnsDomain.RecordState, error)

	// ValidateCredentials performs a low-privilege read call to confirm the
	// configured credential works before it is trusted for issuance.
	ValidateCredentials(ctx context.Context) error
}

// CredentialResolver resolves vault references to credential bytes. The vault
// SecretStore satisfies this.
type CredentialResolver interface {
	Resolve(ctx context.Context, id string) ([]byte, error)
}

// resolveString resolves a vault reference into a string credential.
func resolveString(ctx context.Context, resolver CredentialResolver, ref string) (string, error) {
	value, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	return string(value), nil
}
