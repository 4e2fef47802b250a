package usecase

import (
	"context"
	"crypto"

	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

// RequestRepository defines persistence operations for issuance runs.
type RequestRepository interface {
	Create(ctx context.Context, request *issuanceDomain.IssuanceRequest) error
	GetByID(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error)
	Update(ctx context.Context, request *issuanceDomain.IssuanceRequest) error
	List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error)
	ListActive(ctx context.Context) ([]*issuanceDomain.IssuanceRequest, error)
}

// IssuerService is the slice of issuer management an issuance run needs.
type IssuerService interface {
	GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error)
	Get(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error)
	AccountKey(ctx context.Context, issuer *issuerDomain.IssuerConfig) (crypto.Signer, error)
}

// ProviderService is the slice of DNS provider management an issuance run
// needs: suffix resolution and adapter construction.
type ProviderService interface {
	Get(ctx context.Context, id string) (*dnsDomain.DNSProvider, error)
	Resolve(ctx context.Context, domain string) (*dnsDomain.ResolveResult, error)
	AdapterFor(provider *dnsDomain.DNSProvider) (adapter.Adapter, error)
}

// OrderClient performs the ACME order exchange.
type OrderClient interface {
	BeginOrder(ctx context.Context, key crypto.Signer, directoryURL string, domains []string) (*issuerAcme.Order, error)
	Finalize(ctx context.Context, key crypto.Signer, directoryURL string, order *issuerAcme.Order, csr []byte) ([][]byte, error)
}

// CertificateStore records issued certificates in the inventory. The private
// key goes straight into the vault; only its reference survives.
type CertificateStore interface {
	StoreIssued(ctx context.Context, requestID string, domains []string, chainDER [][]byte, keyPEM []byte) (string, error)
}

// StartInput carries the parameters for a new issuance run.
type StartInput struct {
	Domains      []string
	KeyAlgorithm string
	// IssuerID pins the run to a specific issuer. Empty means the currently
	// selected issuer.
	IssuerID string
}

// IssuanceUseCase drives certificate issuance runs end to end.
type IssuanceUseCase interface {
	// Start opens an ACME order, publishes challenge records where a
	// provider can, and supervises the run in the background. Runs whose
	// domains resolve only to manual providers pause for user action.
	Start(ctx context.Context, input StartInput) (*issuanceDomain.IssuanceRequest, error)

	// Complete resumes a run paused for manual intervention after the user
	// has published the TXT records. Idempotent: concurrent calls for the
	// same request collapse into one resume.
	Complete(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error)

	// RetryDNS restarts propagation checking on a run that failed with a
	// DNS timeout, keeping its ACME order.
	RetryDNS(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error)

	// RetryFinalize reruns the finalize step on a run that failed there.
	RetryFinalize(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error)

	// Cancel aborts a run. Published records are cleaned up best effort.
	Cancel(ctx context.Context, id string) error

	// Get returns one run.
	Get(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error)

	// List returns non-archived runs, newest first.
	List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error)

	// Archive hides a finished run from listings.
	Archive(ctx context.Context, id string) error

	// ResumeActive re-attaches supervision to runs interrupted by a
	// restart.
	ResumeActive(ctx context.Context) error

	// Close stops all supervised runs and waits for them to exit.
	Close()
}
