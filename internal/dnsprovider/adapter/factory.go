package adapter

import (
	"net/http"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// Default provider API endpoints.
const (
	DefaultCloudflareBaseURL   = "https://api.cloudflare.com/client/v4"
	DefaultDigitalOceanBaseURL = "https://api.digitalocean.com"
)

// Factory builds adapters for configured providers. One shared pooled HTTP
// client and one DoH resolver serve every adapter instance.
type Factory struct {
	creds    CredentialResolver
	cache    ZoneCache
	resolver *DoHResolver
	client   *http.Client

	cloudflareBaseURL   string
	digitaloceanBaseURL string
}

// FactoryOption adjusts factory defaults.
type FactoryOption func(*Factory)

// WithCloudflareBaseURL overrides the Cloudflare API root, used in tests.
func WithCloudflareBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) { f.cloudflareBaseURL = baseURL }
}

// WithDigitalOceanBaseURL overrides the DigitalOcean API root, used in tests.
func WithDigitalOceanBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) { f.digitaloceanBaseURL = baseURL }
}

// NewFactory creates an adapter factory.
func NewFactory(
	creds CredentialResolver,
	cache ZoneCache,
	resolver *DoHResolver,
	client *http.Client,
	opts ...FactoryOption,
) *Factory {
	f := &Factory{
		creds:               creds,
		cache:               cache,
		resolver:            resolver,
		client:              client,
		cloudflareBaseURL:   DefaultCloudflareBaseURL,
		digitaloceanBaseURL: DefaultDigitalOceanBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForProvider returns the adapter variant for the provider's kind.
func (f *Factory) ForProvider(provider *dnsDomain.DNSProvider) (Adapter, error) {
	switch provider.Kind {
	case dnsDomain.KindManual:
		return NewManual(f.resolver), nil
	case dnsDomain.KindCloudflare:
		return NewCloudflare(
			provider.ID, provider.TokenRef, f.cloudflareBaseURL,
			f.client, f.creds, f.cache, f.resolver,
		), nil
	case dnsDomain.KindDigitalOcean:
		return NewDigitalOcean(
			provider.ID, provider.TokenRef, f.digitaloceanBaseURL,
			f.client, f.creds, f.cache, f.resolver,
		), nil
	case dnsDomain.KindRoute53:
		return NewRoute53(
			provider.ID, provider.AccessKeyRef, provider.SecretKeyRef,
			f.creds, f.cache, f.resolver,
		), nil
	default:
		return nil, dnsDomain.ErrInvalidKind
	}
}
