// Package usecase implements DNS provider management: credential custody via
// the vault, longest-suffix provider resolution, and credential testing
// through the adapter layer.
package usecase

import (
	"context"

	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// ProviderRepository defines persistence operations for provider configs.
type ProviderRepository interface {
	Create(ctx context.Context, provider *dnsDomain.DNSProvider) error
	GetByID(ctx context.Context, id string) (*dnsDomain.DNSProvider, error)
	Update(ctx context.Context, provider *dnsDomain.DNSProvider) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error)
	ListEnabled(ctx context.Context) ([]*dnsDomain.DNSProvider, error)
}

// SecretStore is the subset of the vault contract provider management needs.
type SecretStore interface {
	Create(ctx context.Context, kind vaultDomain.SecretKind, label string, value []byte) (*vaultDomain.SecretRef, error)
	Update(ctx context.Context, id string, value []byte, label string) (*vaultDomain.SecretRef, error)
	DeleteMany(ctx context.Context, ids []string) error
}

// AdapterFactory builds adapters for configured providers.
type AdapterFactory interface {
	ForProvider(provider *dnsDomain.DNSProvider) (adapter.Adapter, error)
}

// CreateProviderInput carries a new provider configuration. Credentials
// arrive raw exactly once, here, and are stored into the vault immediately.
type CreateProviderInput struct {
	Kind           dnsDomain.ProviderKind
	Label          string
	DomainSuffixes []string
	Token          string
	AccessKey      string
	SecretKey      string
}

// UpdateProviderInput carries provider changes. Empty credential fields keep
// the stored values; non-empty fields rotate them in place.
type UpdateProviderInput struct {
	Label          string
	DomainSuffixes []string
	Token          string
	AccessKey      string
	SecretKey      string
	Disabled       *bool
}

// ProviderWithOverlaps pairs a provider with the already-registered providers
// whose suffixes overlap its own.
type ProviderWithOverlaps struct {
	Provider *dnsDomain.DNSProvider
	Overlaps []*dnsDomain.DNSProvider
}

// TestResult is the outcome of a credential test.
type TestResult struct {
	Success       bool                    `json:"success"`
	ElapsedMS     int64                   `json:"elapsed_ms"`
	Error         string                  `json:"error,omitempty"`
	ErrorCategory dnsDomain.ErrorCategory `json:"error_category,omitempty"`
}

// ProviderUseCase is the DNS provider management contract.
type ProviderUseCase interface {
	// Create stores credentials in the vault and persists the provider.
	Create(ctx context.Context, input *CreateProviderInput) (*ProviderWithOverlaps, error)

	// Get returns one provider.
	Get(ctx context.Context, id string) (*dnsDomain.DNSProvider, error)

	// List returns providers, newest first.
	List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error)

	// Update applies changes, rotating credentials in place when provided.
	Update(ctx context.Context, id string, input *UpdateProviderInput) (*ProviderWithOverlaps, error)

	// Delete removes the provider and cascades to its vault secrets.
	Delete(ctx context.Context, id string) error

	// Resolve maps a domain to a provider by longest registered suffix.
	Resolve(ctx context.Context, domain string) (*dnsDomain.ResolveResult, error)

	// Test validates the provider's credential with a low-privilege call.
	Test(ctx context.Context, id string) (*TestResult, error)

	// AdapterFor builds the adapter for a provider.
	AdapterFor(provider *dnsDomain.DNSProvider) (adapter.Adapter, error)
}
