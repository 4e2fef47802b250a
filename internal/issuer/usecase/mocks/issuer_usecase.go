// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"crypto"

	"github.com/stretchr/testify/mock"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	"github.com/certkeep/certkeep/internal/issuer/usecase"
)

// MockIssuerUseCase is a mock implementation of usecase.IssuerUseCase.
type MockIssuerUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockIssuerUseCase) Create(ctx context.Context, input usecase.CreateIssuerInput) (*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuerDomain.IssuerConfig), args.Error(1)
}

// Get mocks the Get method.
func (m *MockIssuerUseCase) Get(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuerDomain.IssuerConfig), args.Error(1)
}

// GetSelected mocks the GetSelected method.
func (m *MockIssuerUseCase) GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuerDomain.IssuerConfig), args.Error(1)
}

// List mocks the List method.
func (m *MockIssuerUseCase) List(ctx context.Context, offset, limit int) ([]*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*issuerDomain.IssuerConfig), args.Error(1)
}

// Update mocks the Update method.
func (m *MockIssuerUseCase) Update(ctx context.Context, id string, input usecase.UpdateIssuerInput) (*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuerDomain.IssuerConfig), args.Error(1)
}

// Select mocks the Select method.
func (m *MockIssuerUseCase) Select(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockIssuerUseCase) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// EnsureAccount mocks the EnsureAccount method.
func (m *MockIssuerUseCase) EnsureAccount(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuerDomain.IssuerConfig), args.Error(1)
}

// AccountKey mocks the AccountKey method.
func (m *MockIssuerUseCase) AccountKey(ctx context.Context, issuer *issuerDomain.IssuerConfig) (crypto.Signer, error) {
	args := m.Called(ctx, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(crypto.Signer), args.Error(1)
}
