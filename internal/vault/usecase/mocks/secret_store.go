// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// MockSecretStore is a mock implementation of SecretStore for testing.
type MockSecretStore struct {
	mock.Mock
}

// Create mocks the Create method of SecretStore.
func (m *MockSecretStore) Create(
	ctx context.Context,
	kind vaultDomain.SecretKind,
	label string,
	value []byte,
) (*vaultDomain.SecretRef, error) {
	args := m.Called(ctx, kind, label, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SecretRef), args.Error(1)
}

// Resolve mocks the Resolve method of SecretStore.
func (m *MockSecretStore) Resolve(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Update mocks the Update method of SecretStore.
func (m *MockSecretStore) Update(
	ctx context.Context,
	id string,
	value []byte,
	label string,
) (*vaultDomain.SecretRef, error) {
	args := m.Called(ctx, id, value, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SecretRef), args.Error(1)
}

// Delete mocks the Delete method of SecretStore.
func (m *MockSecretStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// DeleteMany mocks the DeleteMany method of SecretStore.
func (m *MockSecretStore) DeleteMany(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// Get mocks the Get method of SecretStore.
func (m *MockSecretStore) Get(ctx context.Context, id string) (*vaultDomain.SecretRef, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SecretRef), args.Error(1)
}

// List mocks the List method of SecretStore.
func (m *MockSecretStore) List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.SecretRef), args.Error(1)
}

// Lock mocks the Lock method of SecretStore.
func (m *MockSecretStore) Lock() {
	m.Called()
}

// Locked mocks the Locked method of SecretStore.
func (m *MockSecretStore) Locked() bool {
	args := m.Called()
	return args.Bool(0)
}

// Close mocks the Close method of SecretStore.
func (m *MockSecretStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
