// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
)

// MockCertInventory is a mock implementation of usecase.CertInventory.
type MockCertInventory struct {
	mock.Mock
}

// StoreIssued mocks the StoreIssued method.
func (m *MockCertInventory) StoreIssued(ctx context.Context, requestID string, domains []string, chainDER [][]byte, keyPEM []byte) (string, error) {
	args := m.Called(ctx, requestID, domains, chainDER, keyPEM)
	return args.String(0), args.Error(1)
}

// Import mocks the Import method.
func (m *MockCertInventory) Import(ctx context.Context, chainPEM []byte, tags []string) (*certinvDomain.CertificateRecord, error) {
	args := m.Called(ctx, chainPEM, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certinvDomain.CertificateRecord), args.Error(1)
}

// Get mocks the Get method.
func (m *MockCertInventory) Get(ctx context.Context, id string) (*certinvDomain.CertificateRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certinvDomain.CertificateRecord), args.Error(1)
}

// List mocks the List method.
func (m *MockCertInventory) List(ctx context.Context, offset, limit int) ([]*certinvDomain.CertificateRecord, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*certinvDomain.CertificateRecord), args.Error(1)
}

// ListExpiring mocks the ListExpiring method.
func (m *MockCertInventory) ListExpiring(ctx context.Context, window time.Duration) ([]*certinvDomain.CertificateRecord, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*certinvDomain.CertificateRecord), args.Error(1)
}

// UpdateTags mocks the UpdateTags method.
func (m *MockCertInventory) UpdateTags(ctx context.Context, id string, tags []string) (*certinvDomain.CertificateRecord, error) {
	args := m.Called(ctx, id, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certinvDomain.CertificateRecord), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockCertInventory) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
