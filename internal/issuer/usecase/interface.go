package usecase

import (
	"context"
	"crypto"
	"time"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// IssuerRepository defines the persistence operations for issuer configs.
type IssuerRepository interface {
	Create(ctx context.Context, issuer *issuerDomain.IssuerConfig) error
	GetByID(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error)
	GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error)
	Update(ctx context.Context, issuer *issuerDomain.IssuerConfig) error
	Select(ctx context.Context, id string, now time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*issuerDomain.IssuerConfig, error)
}

// SecretStore is the slice of the vault the issuer module needs: account
// keys in, account keys out, never exposed past this package.
type SecretStore interface {
	Create(ctx context.Context, kind vaultDomain.SecretKind, label string, value []byte) (*vaultDomain.SecretRef, error)
	Resolve(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// AccountClient performs the ACME account registration exchange.
type AccountClient interface {
	EnsureAccount(ctx context.Context, key crypto.Signer, directoryURL, email string) error
}

// CreateIssuerInput carries the fields for registering an issuer.
type CreateIssuerInput struct {
	Label        string
	Environment  issuerDomain.Environment
	DirectoryURL string
	ContactEmail string
	TosAgreed    bool
	KeyAlgorithm string
}

// UpdateIssuerInput carries the mutable issuer fields. Nil pointers leave
// the stored value unchanged.
type UpdateIssuerInput struct {
	Label        *string
	DirectoryURL *string
	ContactEmail *string
	TosAgreed    *bool
	Disabled     *bool
}

// IssuerUseCase defines issuer configuration and ACME account management.
type IssuerUseCase interface {
	// Create registers an issuer and provisions its account key in the
	// vault. The first enabled issuer becomes the selected one.
	Create(ctx context.Context, input CreateIssuerInput) (*issuerDomain.IssuerConfig, error)
	// Get retrieves an issuer by id.
	Get(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error)
	// GetSelected returns the issuer new issuance runs will use.
	GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error)
	// List returns issuers with pagination.
	List(ctx context.Context, offset, limit int) ([]*issuerDomain.IssuerConfig, error)
	// Update applies the provided field changes.
	Update(ctx context.Context, id string, input UpdateIssuerInput) (*issuerDomain.IssuerConfig, error)
	// Select marks the issuer as the one used for new issuance runs.
	Select(ctx context.Context, id string) error
	// Delete removes the issuer and its vaulted account key.
	Delete(ctx context.Context, id string) error
	// EnsureAccount registers the issuer's key with the CA. Idempotent.
	EnsureAccount(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error)
	// AccountKey loads and parses the issuer's account key from the vault.
	AccountKey(ctx context.Context, issuer *issuerDomain.IssuerConfig) (crypto.Signer, error)
}
