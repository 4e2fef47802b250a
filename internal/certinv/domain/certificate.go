// Package domain defines the certificate inventory model.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// CertificateSource distinguishes certificates this system issued from ones
// imported from outside.
type CertificateSource string

// Certificate sources.
const (
	SourceManaged  CertificateSource = "managed"
	SourceExternal CertificateSource = "external"
)

// Sentinel errors for the certificate inventory.
var (
	ErrCertificateNotFound = fmt.Errorf("certificate %w", apperrors.ErrNotFound)
	ErrEmptyChain          = apperrors.Wrap(apperrors.ErrInvalidInput, "certificate chain is empty")
)

// CertificateRecord is one issued certificate. The chain is public material
// and stored inline; the private key lives in the vault and only its
// reference is recorded. Everything except Tags is immutable after storage.
type CertificateRecord struct {
	ID                string            `json:"id"`
	RequestID         string            `json:"request_id,omitempty"`
	Source            CertificateSource `json:"source"`
	Domains           []string          `json:"domains"`
	DomainRoots       []string          `json:"domain_roots,omitempty"`
	SerialNumber      string            `json:"serial_number"`
	FingerprintSHA256 string            `json:"fingerprint_sha256"`
	IssuerCN          string            `json:"issuer_cn,omitempty"`
	NotBefore         time.Time         `json:"not_before"`
	NotAfter          time.Time         `json:"not_after"`
	ChainPEM          []byte            `json:"-"`
	KeyRef            string            `json:"key_ref,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// DomainRoots reduces a domain list to its unique registrable roots.
// Wildcard labels are stripped first; names without a known public suffix
// are kept as-is.
func DomainRoots(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	var roots []string
	for _, domain := range domains {
		root := strings.TrimPrefix(domain, "*.")
		if etld, err := publicsuffix.EffectiveTLDPlusOne(root); err == nil {
			root = etld
		}
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

// NewCertificateID generates a certificate id.
func NewCertificateID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ExpiresWithin reports whether the certificate expires inside the window.
func (r *CertificateRecord) ExpiresWithin(window time.Duration) bool {
	return time.Now().Add(window).After(r.NotAfter)
}

// Expired reports whether the certificate is already past its lifetime.
func (r *CertificateRecord) Expired() bool {
	return time.Now().After(r.NotAfter)
}
