package dto

import (
	validation "github.com/jellydator/validation"
)

// ImportCertificateRequest records an externally issued chain in the
// inventory. The chain is public material; no private key is accepted.
type ImportCertificateRequest struct {
	ChainPEM string   `json:"chain_pem"`
	Tags     []string `json:"tags,omitempty"`
}

// Validate validates the import request fields.
func (r *ImportCertificateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ChainPEM, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Required, validation.Length(1, 255))),
	)
}

// UpdateTagsRequest replaces the tags attached to a certificate.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// Validate validates the update tags request fields.
func (r *UpdateTagsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Tags, validation.Each(validation.Required, validation.Length(1, 255))),
	)
}
