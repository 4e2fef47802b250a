// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	"github.com/certkeep/certkeep/internal/issuance/usecase"
)

// MockIssuanceUseCase is a mock implementation of usecase.IssuanceUseCase.
type MockIssuanceUseCase struct {
	mock.Mock
}

// Start mocks the Start method.
func (m *MockIssuanceUseCase) Start(ctx context.Context, input usecase.StartInput) (*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.IssuanceRequest), args.Error(1)
}

// Complete mocks the Complete method.
func (m *MockIssuanceUseCase) Complete(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.IssuanceRequest), args.Error(1)
}

// RetryDNS mocks the RetryDNS method.
func (m *MockIssuanceUseCase) RetryDNS(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.IssuanceRequest), args.Error(1)
}

// RetryFinalize mocks the RetryFinalize method.
func (m *MockIssuanceUseCase) RetryFinalize(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.IssuanceRequest), args.Error(1)
}

// Cancel mocks the Cancel method.
func (m *MockIssuanceUseCase) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockIssuanceUseCase) Get(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*issuanceDomain.IssuanceRequest), args.Error(1)
}

// List mocks the List method.
func (m *MockIssuanceUseCase) List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*issuanceDomain.IssuanceRequest), args.Error(1)
}

// Archive mocks the Archive method.
func (m *MockIssuanceUseCase) Archive(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ResumeActive mocks the ResumeActive method.
func (m *MockIssuanceUseCase) ResumeActive(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockIssuanceUseCase) Close() {
	m.Called()
}
