package dto

import (
	"time"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// SecretResponse is the reference metadata returned for a stored credential.
// Credential bytes never appear in API responses.
type SecretResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MapSecretRefToResponse converts a domain reference to an API response.
func MapSecretRefToResponse(ref *vaultDomain.SecretRef) SecretResponse {
	return SecretResponse{
		ID:        ref.ID,
		Kind:      string(ref.Kind),
		Label:     ref.Label,
		CreatedAt: ref.CreatedAt,
		UpdatedAt: ref.UpdatedAt,
	}
}

// ListSecretsResponse represents a paginated list of credential references.
type ListSecretsResponse struct {
	Data []SecretResponse `json:"data"`
}

// MapSecretRefsToListResponse converts domain references to a list response.
func MapSecretRefsToListResponse(refs []*vaultDomain.SecretRef) ListSecretsResponse {
	data := make([]SecretResponse, 0, len(refs))
	for _, ref := range refs {
		data = append(data, MapSecretRefToResponse(ref))
	}
	return ListSecretsResponse{Data: data}
}

// VaultStatusResponse reports the current vault lock state.
type VaultStatusResponse struct {
	Locked bool `json:"locked"`
}
