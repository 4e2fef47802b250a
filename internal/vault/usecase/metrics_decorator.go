package usecase

import (
	"context"
	"time"

	"github.com/certkeep/certkeep/internal/metrics"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// secretStoreWithMetrics decorates SecretStore with metrics instrumentation.
type secretStoreWithMetrics struct {
	next    SecretStore
	metrics metrics.BusinessMetrics
}

// NewSecretStoreWithMetrics wraps a SecretStore with metrics recording.
func NewSecretStoreWithMetrics(store SecretStore, m metrics.BusinessMetrics) SecretStore {
	return &secretStoreWithMetrics{
		next:    store,
		metrics: m,
	}
}

func (s *secretStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "vault", operation, status)
	s.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

// Create records metrics for credential creation.
func (s *secretStoreWithMetrics) Create(ctx context.Context, kind vaultDomain.SecretKind, label string, value []byte) (*vaultDomain.SecretRef, error) {
	start := time.Now()
	ref, err := s.next.Create(ctx, kind, label, value)
	s.record(ctx, "secret_create", start, err)
	return ref, err
}

// Resolve records metrics for plaintext resolves, including blocked unlocks.
func (s *secretStoreWithMetrics) Resolve(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	value, err := s.next.Resolve(ctx, id)
	s.record(ctx, "secret_resolve", start, err)
	return value, err
}

// Update records metrics for credential rotation.
func (s *secretStoreWithMetrics) Update(ctx context.Context, id string, value []byte, label string) (*vaultDomain.SecretRef, error) {
	start := time.Now()
	ref, err := s.next.Update(ctx, id, value, label)
	s.record(ctx, "secret_update", start, err)
	return ref, err
}

// Delete records metrics for credential deletion.
func (s *secretStoreWithMetrics) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.record(ctx, "secret_delete", start, err)
	return err
}

// DeleteMany records metrics for cascade deletions.
func (s *secretStoreWithMetrics) DeleteMany(ctx context.Context, ids []string) error {
	start := time.Now()
	err := s.next.DeleteMany(ctx, ids)
	s.record(ctx, "secret_delete_many", start, err)
	return err
}

// Get passes through without instrumentation.
func (s *secretStoreWithMetrics) Get(ctx context.Context, id string) (*vaultDomain.SecretRef, error) {
	return s.next.Get(ctx, id)
}

// List passes through without instrumentation.
func (s *secretStoreWithMetrics) List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error) {
	return s.next.List(ctx, offset, limit)
}

// Lock passes through without instrumentation.
func (s *secretStoreWithMetrics) Lock() {
	s.next.Lock()
}

// Locked passes through without instrumentation.
func (s *secretStoreWithMetrics) Locked() bool {
	return s.next.Locked()
}

// Close passes through without instrumentation.
func (s *secretStoreWithMetrics) Close() error {
	return s.next.Close()
}
