package usecase

import (
	"context"
	"time"

	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	"github.com/certkeep/certkeep/internal/metrics"
)

// issuanceUseCaseWithMetrics decorates IssuanceUseCase with metrics instrumentation.
type issuanceUseCaseWithMetrics struct {
	next    IssuanceUseCase
	metrics metrics.BusinessMetrics
}

// NewIssuanceUseCaseWithMetrics wraps an IssuanceUseCase with metrics recording.
func NewIssuanceUseCaseWithMetrics(useCase IssuanceUseCase, m metrics.BusinessMetrics) IssuanceUseCase {
	return &issuanceUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *issuanceUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "issuance", operation, status)
	s.metrics.RecordDuration(ctx, "issuance", operation, time.Since(start), status)
}

// Start records metrics for issuance run starts.
func (s *issuanceUseCaseWithMetrics) Start(ctx context.Context, input StartInput) (*issuanceDomain.IssuanceRequest, error) {
	start := time.Now()
	request, err := s.next.Start(ctx, input)
	s.record(ctx, "issuance_start", start, err)
	return request, err
}

// Complete records metrics for manual-intervention resumes.
func (s *issuanceUseCaseWithMetrics) Complete(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	start := time.Now()
	request, err := s.next.Complete(ctx, id)
	s.record(ctx, "issuance_complete", start, err)
	return request, err
}

// RetryDNS records metrics for DNS propagation retries.
func (s *issuanceUseCaseWithMetrics) RetryDNS(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	start := time.Now()
	request, err := s.next.RetryDNS(ctx, id)
	s.record(ctx, "issuance_retry_dns", start, err)
	return request, err
}

// RetryFinalize records metrics for finalize retries.
func (s *issuanceUseCaseWithMetrics) RetryFinalize(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	start := time.Now()
	request, err := s.next.RetryFinalize(ctx, id)
	s.record(ctx, "issuance_retry_finalize", start, err)
	return request, err
}

// Cancel records metrics for run cancellations.
func (s *issuanceUseCaseWithMetrics) Cancel(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Cancel(ctx, id)
	s.record(ctx, "issuance_cancel", start, err)
	return err
}

// Get passes through without instrumentation.
func (s *issuanceUseCaseWithMetrics) Get(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	return s.next.Get(ctx, id)
}

// List passes through without instrumentation.
func (s *issuanceUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error) {
	return s.next.List(ctx, offset, limit)
}

// Archive records metrics for run archival.
func (s *issuanceUseCaseWithMetrics) Archive(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Archive(ctx, id)
	s.record(ctx, "issuance_archive", start, err)
	return err
}

// ResumeActive passes through without instrumentation.
func (s *issuanceUseCaseWithMetrics) ResumeActive(ctx context.Context) error {
	return s.next.ResumeActive(ctx)
}

// Close passes through without instrumentation.
func (s *issuanceUseCaseWithMetrics) Close() {
	s.next.Close()
}
