// Package dto provides data transfer objects for the issuance API.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/certkeep/certkeep/internal/issuance/usecase"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// StartIssuanceRequest contains the parameters for a new issuance run.
type StartIssuanceRequest struct {
	Domains      []string `json:"domains"`
	KeyAlgorithm string   `json:"key_algorithm,omitempty"`
	// IssuerID overrides the selected issuer for this run.
	IssuerID string `json:"issuer_id,omitempty"`
}

// Validate checks if the start issuance request is valid.
func (r *StartIssuanceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Domains,
			validation.Required,
			validation.Each(customValidation.IsDomainName),
		),
	)
}

// ToInput converts the request to a use case input.
func (r *StartIssuanceRequest) ToInput() usecase.StartInput {
	return usecase.StartInput{
		Domains:      r.Domains,
		KeyAlgorithm: r.KeyAlgorithm,
		IssuerID:     r.IssuerID,
	}
}
