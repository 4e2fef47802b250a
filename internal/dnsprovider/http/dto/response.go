package dto

import (
	"time"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/dnsprovider/usecase"
)

// ProviderResponse is the API representation of a provider. Credentials are
// exposed as vault references only.
type ProviderResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Label          string    `json:"label"`
	DomainSuffixes []string  `json:"domain_suffixes"`
	TokenRef       string    `json:"token_ref,omitempty"`
	AccessKeyRef   string    `json:"access_key_ref,omitempty"`
	SecretKeyRef   string    `json:"secret_key_ref,omitempty"`
	Disabled       bool      `json:"disabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MapProviderToResponse converts a domain provider to an API response.
func MapProviderToResponse(provider *dnsDomain.DNSProvider) ProviderResponse {
	return ProviderResponse{
		ID:             provider.ID,
		Kind:           string(provider.Kind),
		Label:          provider.Label,
		DomainSuffixes: provider.DomainSuffixes,
		TokenRef:       provider.TokenRef,
		AccessKeyRef:   provider.AccessKeyRef,
		SecretKeyRef:   provider.SecretKeyRef,
		Disabled:       provider.Disabled,
		CreatedAt:      provider.CreatedAt,
		UpdatedAt:      provider.UpdatedAt,
	}
}

// ProviderWithOverlapsResponse is returned from create/update: the provider
// plus any already-registered providers whose suffixes overlap.
type ProviderWithOverlapsResponse struct {
	Provider ProviderResponse   `json:"provider"`
	Overlaps []ProviderResponse `json:"overlaps,omitempty"`
}

// MapProviderWithOverlapsToResponse converts a use case result.
func MapProviderWithOverlapsToResponse(out *usecase.ProviderWithOverlaps) ProviderWithOverlapsResponse {
	response := ProviderWithOverlapsResponse{
		Provider: MapProviderToResponse(out.Provider),
	}
	for _, overlap := range out.Overlaps {
		response.Overlaps = append(response.Overlaps, MapProviderToResponse(overlap))
	}
	return response
}

// ListProvidersResponse represents a paginated provider list.
type ListProvidersResponse struct {
	Data []ProviderResponse `json:"data"`
}

// MapProvidersToListResponse converts domain providers to a list response.
func MapProvidersToListResponse(providers []*dnsDomain.DNSProvider) ListProvidersResponse {
	data := make([]ProviderResponse, 0, len(providers))
	for _, provider := range providers {
		data = append(data, MapProviderToResponse(provider))
	}
	return ListProvidersResponse{Data: data}
}

// ResolveResponse is the outcome of mapping a domain to a provider.
type ResolveResponse struct {
	Provider      *ProviderResponse  `json:"provider,omitempty"`
	MatchedSuffix string             `json:"matched_suffix,omitempty"`
	Ambiguous     []ProviderResponse `json:"ambiguous,omitempty"`
}

// MapResolveResultToResponse converts a domain resolve result.
func MapResolveResultToResponse(result *dnsDomain.ResolveResult) ResolveResponse {
	response := ResolveResponse{MatchedSuffix: result.MatchedSuffix}
	if result.Provider != nil {
		provider := MapProviderToResponse(result.Provider)
		response.Provider = &provider
	}
	for _, ambiguous := range result.Ambiguous {
		response.Ambiguous = append(response.Ambiguous, MapProviderToResponse(ambiguous))
	}
	return response
}
