// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/dnsprovider/usecase"
)

// MockProviderUseCase is a mock implementation of usecase.ProviderUseCase.
type MockProviderUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockProviderUseCase) Create(ctx context.Context, input *usecase.CreateProviderInput) (*usecase.ProviderWithOverlaps, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProviderWithOverlaps), args.Error(1)
}

// Get mocks the Get method.
func (m *MockProviderUseCase) Get(ctx context.Context, id string) (*dnsDomain.DNSProvider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dnsDomain.DNSProvider), args.Error(1)
}

// List mocks the List method.
func (m *MockProviderUseCase) List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dnsDomain.DNSProvider), args.Error(1)
}

// Update mocks the Update method.
func (m *MockProviderUseCase) Update(ctx context.Context, id string, input *usecase.UpdateProviderInput) (*usecase.ProviderWithOverlaps, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProviderWithOverlaps), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockProviderUseCase) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Resolve mocks the Resolve method.
func (m *MockProviderUseCase) Resolve(ctx context.Context, domain string) (*dnsDomain.ResolveResult, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dnsDomain.ResolveResult), args.Error(1)
}

// Test mocks the Test method.
func (m *MockProviderUseCase) Test(ctx context.Context, id string) (*usecase.TestResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.TestResult), args.Error(1)
}

// AdapterFor mocks the AdapterFor method.
func (m *MockProviderUseCase) AdapterFor(provider *dnsDomain.DNSProvider) (adapter.Adapter, error) {
	args := m.Called(provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(adapter.Adapter), args.Error(1)
}
