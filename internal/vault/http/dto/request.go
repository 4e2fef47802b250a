// Package dto provides data transfer objects for the secret vault API.
// Requests carry credential bytes base64 encoded; responses only ever carry
// reference metadata.
package dto

import (
	validation "github.com/jellydator/validation"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// CreateSecretRequest contains the parameters for storing a new credential.
type CreateSecretRequest struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Validate checks if the create secret request is valid.
func (r *CreateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind,
			validation.Required,
			validation.By(func(value interface{}) error {
				kind, _ := value.(string)
				if !vaultDomain.SecretKind(kind).Valid() {
					return vaultDomain.ErrInvalidKind
				}
				return nil
			}),
		),
		validation.Field(&r.Label,
			validation.Length(0, 255),
		),
		validation.Field(&r.Value,
			validation.Required,
		),
	)
}

// UpdateSecretRequest contains the parameters for rotating a stored
// credential. An empty label keeps the existing label.
type UpdateSecretRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Validate checks if the update secret request is valid.
func (r *UpdateSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Label,
			validation.Length(0, 255),
		),
		validation.Field(&r.Value,
			validation.Required,
		),
	)
}
