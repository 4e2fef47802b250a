package usecase

import (
	"context"
	"time"

	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/metrics"
)

// providerUseCaseWithMetrics decorates ProviderUseCase with metrics instrumentation.
type providerUseCaseWithMetrics struct {
	next    ProviderUseCase
	metrics metrics.BusinessMetrics
}

// NewProviderUseCaseWithMetrics wraps a ProviderUseCase with metrics recording.
func NewProviderUseCaseWithMetrics(useCase ProviderUseCase, m metrics.BusinessMetrics) ProviderUseCase {
	return &providerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *providerUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "dnsprovider", operation, status)
	s.metrics.RecordDuration(ctx, "dnsprovider", operation, time.Since(start), status)
}

// Create records metrics for provider registration.
func (s *providerUseCaseWithMetrics) Create(ctx context.Context, input *CreateProviderInput) (*ProviderWithOverlaps, error) {
	start := time.Now()
	provider, err := s.next.Create(ctx, input)
	s.record(ctx, "provider_create", start, err)
	return provider, err
}

// Get passes through without instrumentation.
func (s *providerUseCaseWithMetrics) Get(ctx context.Context, id string) (*dnsDomain.DNSProvider, error) {
	return s.next.Get(ctx, id)
}

// List passes through without instrumentation.
func (s *providerUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error) {
	return s.next.List(ctx, offset, limit)
}

// Update records metrics for provider changes and credential rotation.
func (s *providerUseCaseWithMetrics) Update(ctx context.Context, id string, input *UpdateProviderInput) (*ProviderWithOverlaps, error) {
	start := time.Now()
	provider, err := s.next.Update(ctx, id, input)
	s.record(ctx, "provider_update", start, err)
	return provider, err
}

// Delete records metrics for provider removal.
func (s *providerUseCaseWithMetrics) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.record(ctx, "provider_delete", start, err)
	return err
}

// Resolve passes through without instrumentation.
func (s *providerUseCaseWithMetrics) Resolve(ctx context.Context, domain string) (*dnsDomain.ResolveResult, error) {
	return s.next.Resolve(ctx, domain)
}

// Test records metrics for credential tests against the provider API.
func (s *providerUseCaseWithMetrics) Test(ctx context.Context, id string) (*TestResult, error) {
	start := time.Now()
	result, err := s.next.Test(ctx, id)
	s.record(ctx, "provider_test", start, err)
	return result, err
}

// AdapterFor passes through without instrumentation.
func (s *providerUseCaseWithMetrics) AdapterFor(provider *dnsDomain.DNSProvider) (adapter.Adapter, error) {
	return s.next.AdapterFor(provider)
}
