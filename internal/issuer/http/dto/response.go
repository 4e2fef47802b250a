package dto

import (
	"time"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

// IssuerResponse represents an issuer in API responses. The account key
// never leaves the vault; only its reference id is exposed.
type IssuerResponse struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Environment   string    `json:"environment"`
	DirectoryURL  string    `json:"directory_url"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	AccountKeyRef string    `json:"account_key_ref,omitempty"`
	TosAgreed     bool      `json:"tos_agreed"`
	IsSelected    bool      `json:"is_selected"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MapIssuerToResponse converts a domain issuer to a response DTO.
func MapIssuerToResponse(issuer *issuerDomain.IssuerConfig) IssuerResponse {
	return IssuerResponse{
		ID:            issuer.ID,
		Label:         issuer.Label,
		Environment:   string(issuer.Environment),
		DirectoryURL:  issuer.Directory(),
		ContactEmail:  issuer.ContactEmail,
		AccountKeyRef: issuer.AccountKeyRef,
		TosAgreed:     issuer.TosAgreed,
		IsSelected:    issuer.IsSelected,
		Disabled:      issuer.Disabled,
		CreatedAt:     issuer.CreatedAt,
		UpdatedAt:     issuer.UpdatedAt,
	}
}

// ListIssuersResponse represents a paginated list of issuers.
type ListIssuersResponse struct {
	Issuers []IssuerResponse `json:"issuers"`
}

// MapIssuersToListResponse converts domain issuers to a list response.
func MapIssuersToListResponse(issuers []*issuerDomain.IssuerConfig) ListIssuersResponse {
	out := ListIssuersResponse{Issuers: make([]IssuerResponse, 0, len(issuers))}
	for _, issuer := range issuers {
		out.Issuers = append(out.Issuers, MapIssuerToResponse(issuer))
	}
	return out
}
