package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/certkeep/certkeep/internal/database"
	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// providerUseCase implements ProviderUseCase.
type providerUseCase struct {
	txManager database.TxManager
	repo      ProviderRepository
	secrets   SecretStore
	factory   AdapterFactory
	logger    *slog.Logger
}

// NewProviderUseCase creates the provider management use case.
func NewProviderUseCase(
	txManager database.TxManager,
	repo ProviderRepository,
	secrets SecretStore,
	factory AdapterFactory,
	logger *slog.Logger,
) ProviderUseCase {
	return &providerUseCase{
		txManager: txManager,
		repo:      repo,
		secrets:   secrets,
		factory:   factory,
		logger:    logger,
	}
}

// Create stores the submitted credentials in the vault, persists the
// provider, and reports suffix overlaps with existing providers.
func (u *providerUseCase) Create(ctx context.Context, input *CreateProviderInput) (*ProviderWithOverlaps, error) {
	if !input.Kind.Valid() {
		return nil, dnsDomain.ErrInvalidKind
	}
	if err := validateCredentialShape(input.Kind, input.Token, input.AccessKey, input.SecretKey, true); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	provider := &dnsDomain.DNSProvider{
		ID:             dnsDomain.NewProviderID(),
		Kind:           input.Kind,
		Label:          input.Label,
		DomainSuffixes: normalizeSuffixes(input.DomainSuffixes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.storeCredentials(ctx, provider, input.Token, input.AccessKey, input.SecretKey); err != nil {
		return nil, err
	}

	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Create(txCtx, provider)
	})
	if err != nil {
		// The provider row never landed; don't leave orphaned secrets.
		if cleanupErr := u.secrets.DeleteMany(ctx, provider.SecretRefs()); cleanupErr != nil {
			u.logger.Warn("failed to clean up orphaned secrets", slog.String("error", cleanupErr.Error()))
		}
		return nil, err
	}

	overlaps, err := u.findOverlaps(ctx, provider)
	if err != nil {
		return nil, err
	}

	u.logger.Info("dns provider created",
		slog.String("provider_id", provider.ID),
		slog.String("kind", string(provider.Kind)),
	)
	return &ProviderWithOverlaps{Provider: provider, Overlaps: overlaps}, nil
}

// Get returns one provider.
func (u *providerUseCase) Get(ctx context.Context, id string) (*dnsDomain.DNSProvider, error) {
	return u.repo.GetByID(ctx, id)
}

// List returns providers, newest first.
func (u *providerUseCase) List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error) {
	return u.repo.List(ctx, offset, limit)
}

// Update applies configuration changes. Non-empty credential fields rotate
// the vault value in place, preserving the stored reference id.
func (u *providerUseCase) Update(ctx context.Context, id string, input *UpdateProviderInput) (*ProviderWithOverlaps, error) {
	provider, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Label != "" {
		provider.Label = input.Label
	}
	if input.DomainSuffixes != nil {
		provider.DomainSuffixes = normalizeSuffixes(input.DomainSuffixes)
	}
	if input.Disabled != nil {
		provider.Disabled = *input.Disabled
	}
	provider.UpdatedAt = time.Now().UTC()

	if err := u.rotateCredentials(ctx, provider, input.Token, input.AccessKey, input.SecretKey); err != nil {
		return nil, err
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Update(txCtx, provider)
	})
	if err != nil {
		return nil, err
	}

	overlaps, err := u.findOverlaps(ctx, provider)
	if err != nil {
		return nil, err
	}

	return &ProviderWithOverlaps{Provider: provider, Overlaps: overlaps}, nil
}

// Delete removes the provider and cascades to every vault secret it owns.
func (u *providerUseCase) Delete(ctx context.Context, id string) error {
	provider, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	if err := u.secrets.DeleteMany(ctx, provider.SecretRefs()); err != nil {
		return apperrors.Wrap(err, "provider deleted but secret cascade failed")
	}

	u.logger.Info("dns provider deleted", slog.String("provider_id", id))
	return nil
}

// Resolve selects the provider whose registered suffix is the longest match
// for the domain. Ties on length fall to the most recently updated provider.
// Every matching provider is reported in Ambiguous when more than one
// matched, so overlaps stay visible.
func (u *providerUseCase) Resolve(ctx context.Context, domain string) (*dnsDomain.ResolveResult, error) {
	providers, err := u.repo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	domain = strings.ToLower(strings.TrimSuffix(domain, "."))

	result := &dnsDomain.ResolveResult{}
	matched := make(map[string]bool)

	// ListEnabled orders by updated_at descending, which settles length ties.
	for _, provider := range providers {
		for _, suffix := range provider.DomainSuffixes {
			if !dnsDomain.SuffixMatches(suffix, domain) {
				continue
			}
			if !matched[provider.ID] {
				matched[provider.ID] = true
				result.Ambiguous = append(result.Ambiguous, provider)
			}
			if result.Provider == nil || len(suffix) > len(result.MatchedSuffix) {
				result.Provider = provider
				result.MatchedSuffix = suffix
			}
		}
	}

	if result.Provider == nil {
		return nil, dnsDomain.ErrNoProviderMatch
	}
	if len(result.Ambiguous) < 2 {
		result.Ambiguous = nil
	}
	return result, nil
}

// Test builds the provider's adapter and validates its credential.
func (u *providerUseCase) Test(ctx context.Context, id string) (*TestResult, error) {
	provider, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	adpt, err := u.factory.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = adpt.ValidateCredentials(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return &TestResult{
			Success:       false,
			ElapsedMS:     elapsed,
			Error:         err.Error(),
			ErrorCategory: dnsDomain.Categorize(err),
		}, nil
	}
	return &TestResult{Success: true, ElapsedMS: elapsed}, nil
}

// AdapterFor builds the adapter for a provider.
func (u *providerUseCase) AdapterFor(provider *dnsDomain.DNSProvider) (adapter.Adapter, error) {
	return u.factory.ForProvider(provider)
}

// storeCredentials creates vault entries for a new provider's credentials.
func (u *providerUseCase) storeCredentials(ctx context.Context, provider *dnsDomain.DNSProvider, token, accessKey, secretKey string) error {
	if token != "" {
		ref, err := u.secrets.Create(ctx, vaultDomain.KindDNSProviderToken, provider.Label+" token", []byte(token))
		if err != nil {
			return err
		}
		provider.TokenRef = ref.ID
	}
	if accessKey != "" {
		ref, err := u.secrets.Create(ctx, vaultDomain.KindDNSProviderAccessKey, provider.Label+" access key", []byte(accessKey))
		if err != nil {
			return err
		}
		provider.AccessKeyRef = ref.ID
	}
	if secretKey != "" {
		ref, err := u.secrets.Create(ctx, vaultDomain.KindDNSProviderSecretKey, provider.Label+" secret key", []byte(secretKey))
		if err != nil {
			return err
		}
		provider.SecretKeyRef = ref.ID
	}
	return nil
}

// rotateCredentials updates vault entries in place for non-empty inputs.
func (u *providerUseCase) rotateCredentials(ctx context.Context, provider *dnsDomain.DNSProvider, token, accessKey, secretKey string) error {
	rotations := []struct {
		value string
		ref   string
	}{
		{token, provider.TokenRef},
		{accessKey, provider.AccessKeyRef},
		{secretKey, provider.SecretKeyRef},
	}

	for _, rotation := range rotations {
		if rotation.value == "" || rotation.ref == "" {
			continue
		}
		if _, err := u.secrets.Update(ctx, rotation.ref, []byte(rotation.value), ""); err != nil {
			return err
		}
	}
	return nil
}

// findOverlaps returns other providers whose suffixes overlap the given one.
func (u *providerUseCase) findOverlaps(ctx context.Context, provider *dnsDomain.DNSProvider) ([]*dnsDomain.DNSProvider, error) {
	providers, err := u.repo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	var overlaps []*dnsDomain.DNSProvider
	for _, other := range providers {
		if other.ID == provider.ID {
			continue
		}
		if suffixSetsOverlap(provider.DomainSuffixes, other.DomainSuffixes) {
			overlaps = append(overlaps, other)
		}
	}
	return overlaps, nil
}

// suffixSetsOverlap reports whether any suffix pair covers overlapping
// domain space.
func suffixSetsOverlap(a, b []string) bool {
	for _, sa := range a {
		for _, sb := range b {
			if suffixesOverlap(sa, sb) {
				return true
			}
		}
	}
	return false
}

func suffixesOverlap(a, b string) bool {
	baseA := strings.TrimPrefix(a, "*.")
	baseB := strings.TrimPrefix(b, "*.")
	return baseA == baseB ||
		dnsDomain.SuffixMatches(a, baseB) ||
		dnsDomain.SuffixMatches(b, baseA) ||
		strings.HasSuffix(baseA, "."+baseB) ||
		strings.HasSuffix(baseB, "."+baseA)
}

// normalizeSuffixes lowercases and de-duplicates registered suffixes.
func normalizeSuffixes(suffixes []string) []string {
	seen := make(map[string]bool, len(suffixes))
	out := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		suffix = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(suffix), "."))
		if suffix == "" || seen[suffix] {
			continue
		}
		seen[suffix] = true
		out = append(out, suffix)
	}
	return out
}

// validateCredentialShape enforces the credential fields each kind needs.
func validateCredentialShape(kind dnsDomain.ProviderKind, token, accessKey, secretKey string, required bool) error {
	switch kind {
	case dnsDomain.KindManual:
		return nil
	case dnsDomain.KindCloudflare, dnsDomain.KindDigitalOcean:
		if required && token == "" {
			return apperrors.Wrap(apperrors.ErrInvalidInput, "token is required")
		}
	case dnsDomain.KindRoute53:
		if required && (accessKey == "" || secretKey == "") {
			return apperrors.Wrap(apperrors.ErrInvalidInput, "access key and secret key are required")
		}
	}
	return nil
}
