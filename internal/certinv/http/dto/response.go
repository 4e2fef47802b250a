package dto

import (
	"time"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
)

// CertificateResponse represents an issued certificate in API responses.
// The private key stays in the vault; only its reference id is exposed.
// The chain is served by the dedicated download endpoint.
type CertificateResponse struct {
	ID                string    `json:"id"`
	RequestID         string    `json:"request_id"`
	Source            string    `json:"source"`
	Domains           []string  `json:"domains"`
	DomainRoots       []string  `json:"domain_roots,omitempty"`
	SerialNumber      string    `json:"serial_number"`
	FingerprintSHA256 string    `json:"fingerprint_sha256"`
	IssuerCN          string    `json:"issuer_cn"`
	NotBefore         time.Time `json:"not_before"`
	NotAfter          time.Time `json:"not_after"`
	KeyRef            string    `json:"key_ref"`
	Tags              []string  `json:"tags,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MapCertificateToResponse converts a domain record to a response DTO.
func MapCertificateToResponse(record *certinvDomain.CertificateRecord) CertificateResponse {
	return CertificateResponse{
		ID:                record.ID,
		RequestID:         record.RequestID,
		Source:            string(record.Source),
		Domains:           record.Domains,
		DomainRoots:       record.DomainRoots,
		SerialNumber:      record.SerialNumber,
		FingerprintSHA256: record.FingerprintSHA256,
		IssuerCN:          record.IssuerCN,
		NotBefore:         record.NotBefore,
		NotAfter:          record.NotAfter,
		KeyRef:            record.KeyRef,
		Tags:              record.Tags,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

// ListCertificatesResponse represents a list of certificates.
type ListCertificatesResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
}

// MapCertificatesToListResponse converts domain records to a list response.
func MapCertificatesToListResponse(records []*certinvDomain.CertificateRecord) ListCertificatesResponse {
	out := ListCertificatesResponse{Certificates: make([]CertificateResponse, 0, len(records))}
	for _, record := range records {
		out.Certificates = append(out.Certificates, MapCertificateToResponse(record))
	}
	return out
}
