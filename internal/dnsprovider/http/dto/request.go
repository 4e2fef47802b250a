// Package dto provides data transfer objects for the DNS provider API.
package dto

import (
	validation "github.com/jellydator/validation"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/dnsprovider/usecase"
	customValidation "github.com/certkeep/certkeep/internal/validation"
)

// CredentialsRequest carries raw provider credentials on create/update. They
// are moved into the vault immediately and never echoed back.
type CredentialsRequest struct {
	Token     string `json:"token,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
}

// CreateProviderRequest contains the parameters for registering a provider.
type CreateProviderRequest struct {
	Kind           string             `json:"kind"`
	Label          string             `json:"label"`
	DomainSuffixes []string           `json:"domain_suffixes"`
	Credentials    CredentialsRequest `json:"credentials"`
}

// Validate checks if the create provider request is valid.
func (r *CreateProviderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind,
			validation.Required,
			validation.By(func(value interface{}) error {
				kind, _ := value.(string)
				if !dnsDomain.ProviderKind(kind).Valid() {
					return validation.NewError("validation_kind", "must be a supported provider kind")
				}
				return nil
			}),
		),
		validation.Field(&r.Label,
			validation.Required,
			validation.Length(1, 255),
		),
		validation.Field(&r.DomainSuffixes,
			validation.Required,
			validation.Each(customValidation.IsDomainSuffix),
		),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateProviderRequest) ToInput() *usecase.CreateProviderInput {
	return &usecase.CreateProviderInput{
		Kind:           dnsDomain.ProviderKind(r.Kind),
		Label:          r.Label,
		DomainSuffixes: r.DomainSuffixes,
		Token:          r.Credentials.Token,
		AccessKey:      r.Credentials.AccessKey,
		SecretKey:      r.Credentials.SecretKey,
	}
}

// UpdateProviderRequest contains provider changes. Omitted fields keep their
// stored values.
type UpdateProviderRequest struct {
	Label          string             `json:"label,omitempty"`
	DomainSuffixes []string           `json:"domain_suffixes,omitempty"`
	Credentials    CredentialsRequest `json:"credentials"`
	Disabled       *bool              `json:"disabled,omitempty"`
}

// Validate checks if the update provider request is valid.
func (r *UpdateProviderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label,
			validation.Length(0, 255),
		),
		validation.Field(&r.DomainSuffixes,
			validation.Each(customValidation.IsDomainSuffix),
		),
	)
}

// ToInput converts the request to a use case input.
func (r *UpdateProviderRequest) ToInput() *usecase.UpdateProviderInput {
	return &usecase.UpdateProviderInput{
		Label:          r.Label,
		DomainSuffixes: r.DomainSuffixes,
		Token:          r.Credentials.Token,
		AccessKey:      r.Credentials.AccessKey,
		SecretKey:      r.Credentials.SecretKey,
		Disabled:       r.Disabled,
	}
}
