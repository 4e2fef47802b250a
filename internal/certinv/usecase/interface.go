package usecase

import (
	"context"
	"time"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// CertificateRepository defines persistence operations for the inventory.
type CertificateRepository interface {
	Create(ctx context.Context, record *certinvDomain.CertificateRecord) error
	GetByID(ctx context.Context, id string) (*certinvDomain.CertificateRecord, error)
	UpdateTags(ctx context.Context, id string, tags []string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*certinvDomain.CertificateRecord, error)
	ListExpiring(ctx context.Context, cutoff time.Time) ([]*certinvDomain.CertificateRecord, error)
}

// SecretStore is the slice of the vault the inventory needs for private key
// custody.
type SecretStore interface {
	Create(ctx context.Context, kind vaultDomain.SecretKind, label string, value []byte) (*vaultDomain.SecretRef, error)
	Delete(ctx context.Context, id string) error
}

// CertInventory manages issued certificates.
type CertInventory interface {
	// StoreIssued records a freshly issued certificate: the chain inline,
	// the private key into the vault. Returns the certificate id.
	StoreIssued(ctx context.Context, requestID string, domains []string, chainDER [][]byte, keyPEM []byte) (string, error)
	// Import records an externally issued chain as metadata only, without
	// any private key custody.
	Import(ctx context.Context, chainPEM []byte, tags []string) (*certinvDomain.CertificateRecord, error)
	// Get returns one certificate.
	Get(ctx context.Context, id string) (*certinvDomain.CertificateRecord, error)
	// List returns certificates, newest first.
	List(ctx context.Context, offset, limit int) ([]*certinvDomain.CertificateRecord, error)
	// ListExpiring returns certificates expiring inside the window.
	ListExpiring(ctx context.Context, window time.Duration) ([]*certinvDomain.CertificateRecord, error)
	// UpdateTags replaces the certificate's tags.
	UpdateTags(ctx context.Context, id string, tags []string) (*certinvDomain.CertificateRecord, error)
	// Delete removes the certificate and its vaulted private key.
	Delete(ctx context.Context, id string) error
}
