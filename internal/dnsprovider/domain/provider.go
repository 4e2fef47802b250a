// Package domain defines DNS provider configuration, challenge record states,
// and the adapter error taxonomy.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProviderKind identifies the adapter variant used for a configured provider.
type ProviderKind string

// Supported provider kinds.
const (
	KindManual       ProviderKind = "manual"
	KindCloudflare   ProviderKind = "cloudflare"
	KindDigitalOcean ProviderKind = "digitalocean"
	KindRoute53      ProviderKind = "route53"
)

// Valid reports whether the kind is a supported adapter variant.
func (k ProviderKind) Valid() bool {
	switch k {
	case KindManual, KindCloudflare, KindDigitalOcean, KindRoute53:
		return true
	}
	return false
}

// Automated reports whether records are published through a provider API
// rather than by a human.
func (k ProviderKind) Automated() bool {
	return k.Valid() && k != KindManual
}

// DNSProvider is a configured DNS provider. Credential material is referenced
// by vault ids and never stored here.
type DNSProvider struct {
	ID             string       `json:"id"`
	Kind           ProviderKind `json:"kind"`
	Label          string       `json:"label"`
	DomainSuffixes []string     `json:"domain_suffixes"`

	// TokenRef is set for token-authenticated kinds (cloudflare,
	// digitalocean). AccessKeyRef and SecretKeyRef are set for route53.
	TokenRef     string `json:"token_ref,omitempty"`
	AccessKeyRef string `json:"access_key_ref,omitempty"`
	SecretKeyRef string `json:"secret_key_ref,omitempty"`

	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProviderID generates a provider id.
func NewProviderID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SecretRefs returns all vault references owned by this provider, used for
// cascade deletion.
func (p *DNSProvider) SecretRefs() []string {
	var refs []string
	for _, ref := range []string{p.TokenRef, p.AccessKeyRef, p.SecretKeyRef} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ResolveResult is the outcome of mapping a domain to a provider.
type ResolveResult struct {
	// Provider is the selected provider, nil when no suffix matches.
	Provider *DNSProvider `json:"provider,omitempty"`
	// MatchedSuffix is the registered suffix that won the match.
	MatchedSuffix string `json:"matched_suffix,omitempty"`
	// Ambiguous lists every matching provider when more than one suffix
	// matched, so overlaps are never silently hidden.
	Ambiguous []*DNSProvider `json:"ambiguous,omitempty"`
}

// SuffixMatches reports whether domain falls under the registered suffix.
// A wildcard suffix ("*.example.com") matches any name below the apex but
// not the apex itself; a bare suffix matches the apex and everything below.
func SuffixMatches(suffix, domain string) bool {
	if wild, ok := trimWildcard(suffix); ok {
		return len(domain) > len(wild)+1 && hasDotSuffix(domain, wild)
	}
	return domain == suffix || hasDotSuffix(domain, suffix)
}

func trimWildcard(suffix string) (string, bool) {
	const prefix = "*."
	if len(suffix) > len(prefix) && suffix[:len(prefix)] == prefix {
		return suffix[len(prefix):], true
	}
	return suffix, false
}

func hasDotSuffix(domain, suffix string) bool {
	return len(domain) > len(suffix)+1 &&
		domain[len(domain)-len(suffix):] == suffix &&
		domain[len(domain)-len(suffix)-1] == '.'
}
