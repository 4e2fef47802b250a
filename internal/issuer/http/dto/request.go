// Package dto provides data transfer objects for the issuer API.
package dto

import (
	validation "github.com/jellydator/validation"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	"github.com/certkeep/certkeep/internal/issuer/usecase"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// CreateIssuerRequest contains the parameters for registering an ACME issuer.
type CreateIssuerRequest struct {
	Label        string `json:"label"`
	Environment  string `json:"environment"`
	DirectoryURL string `json:"directory_url,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	TosAgreed    bool   `json:"tos_agreed"`
	KeyAlgorithm string `json:"key_algorithm,omitempty"`
}

// Validate checks if the create issuer request is valid.
func (r *CreateIssuerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label,
			validation.Required,
			validation.Length(1, 255),
		),
		validation.Field(&r.Environment,
			validation.Required,
			validation.By(func(value interface{}) error {
				environment, _ := value.(string)
				if !issuerDomain.Environment(environment).Valid() {
					return validation.NewError("validation_environment", "must be staging or production")
				}
				return nil
			}),
		),
		validation.Field(&r.ContactEmail,
			validation.When(r.ContactEmail != "", customValidation.IsEmail),
		),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateIssuerRequest) ToInput() usecase.CreateIssuerInput {
	return usecase.CreateIssuerInput{
		Label:        r.Label,
		Environment:  issuerDomain.Environment(r.Environment),
		DirectoryURL: r.DirectoryURL,
		ContactEmail: r.ContactEmail,
		TosAgreed:    r.TosAgreed,
		KeyAlgorithm: r.KeyAlgorithm,
	}
}

// UpdateIssuerRequest contains issuer changes. Omitted fields keep their
// stored values.
type UpdateIssuerRequest struct {
	Label        *string `json:"label,omitempty"`
	DirectoryURL *string `json:"directory_url,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	TosAgreed    *bool   `json:"tos_agreed,omitempty"`
	Disabled     *bool   `json:"disabled,omitempty"`
}

// Validate checks if the update issuer request is valid.
func (r *UpdateIssuerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label,
			validation.Length(1, 255),
		),
		validation.Field(&r.ContactEmail,
			validation.When(r.ContactEmail != nil && *r.ContactEmail != "", customValidation.IsEmail),
		),
	)
}

// ToInput converts the request to a use case input.
func (r *UpdateIssuerRequest) ToInput() usecase.UpdateIssuerInput {
	return usecase.UpdateIssuerInput{
		Label:        r.Label,
		DirectoryURL: r.DirectoryURL,
		ContactEmail: r.ContactEmail,
		TosAgreed:    r.TosAgreed,
		Disabled:     r.Disabled,
	}
}
