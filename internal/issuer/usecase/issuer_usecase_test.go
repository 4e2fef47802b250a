package usecase

import (
	"context"
	"crypto"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/certkeep/certkeep/internal/errors"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryIssuerRepository is an in-memory IssuerRepository.
type memoryIssuerRepository struct {
	mu      sync.Mutex
	issuers map[string]*issuerDomain.IssuerConfig
}

func newMemoryIssuerRepository() *memoryIssuerRepository {
	return &memoryIssuerRepository{issuers: make(map[string]*issuerDomain.IssuerConfig)}
}

func (m *memoryIssuerRepository) Create(_ context.Context, issuer *issuerDomain.IssuerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *issuer
	m.issuers[issuer.ID] = &cp
	return nil
}

func (m *memoryIssuerRepository) GetByID(_ context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issuer, ok := m.issuers[id]
	if !ok {
		return nil, issuerDomain.ErrIssuerNotFound
	}
	cp := *issuer
	return &cp, nil
}

func (m *memoryIssuerRepository) GetSelected(_ context.Context) (*issuerDomain.IssuerConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, issuer := range m.issuers {
		if issuer.IsSelected && !issuer.Disabled {
			cp := *issuer
			return &cp, nil
		}
	}
	return nil, issuerDomain.ErrNoIssuerSelected
}

func (m *memoryIssuerRepository) Update(_ context.Context, issuer *issuerDomain.IssuerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issuers[issuer.ID]; !ok {
		return issuerDomain.ErrIssuerNotFound
	}
	cp := *issuer
	m.issuers[issuer.ID] = &cp
	return nil
}

func (m *memoryIssuerRepository) Select(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issuers[id]; !ok {
		return issuerDomain.ErrIssuerNotFound
	}
	for _, issuer := range m.issuers {
		issuer.IsSelected = issuer.ID == id
		issuer.UpdatedAt = now
	}
	return nil
}

func (m *memoryIssuerRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issuers[id]; !ok {
		return issuerDomain.ErrIssuerNotFound
	}
	delete(m.issuers, id)
	return nil
}

func (m *memoryIssuerRepository) List(_ context.Context, _, _ int) ([]*issuerDomain.IssuerConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var issuers []*issuerDomain.IssuerConfig
	for _, issuer := range m.issuers {
		cp := *issuer
		issuers = append(issuers, &cp)
	}
	return issuers, nil
}

// memorySecrets is an in-memory SecretStore slice.
type memorySecrets struct {
	mu      sync.Mutex
	values  map[string][]byte
	deleted []string
	nextID  int
}

func newMemorySecrets() *memorySecrets {
	return &memorySecrets{values: make(map[string][]byte)}
}

func (m *memorySecrets) Create(_ context.Context, kind vaultDomain.SecretKind, _ string, value []byte) (*vaultDomain.SecretRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := string(rune('a' + m.nextID - 1))
	m.values[id] = append([]byte(nil), value...)
	return &vaultDomain.SecretRef{ID: id, Kind: kind}, nil
}

func (m *memorySecrets) Resolve(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[id]
	if !ok {
		return nil, vaultDomain.ErrSecretNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *memorySecrets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// stubAccountClient records EnsureAccount calls.
type stubAccountClient struct {
	err       error
	calls     int
	directory string
	email     string
}

func (s *stubAccountClient) EnsureAccount(_ context.Context, _ crypto.Signer, directoryURL, email string) error {
	s.calls++
	s.directory = directoryURL
	s.email = email
	return s.err
}

func newTestUseCase(repo IssuerRepository, secrets SecretStore, client AccountClient) IssuerUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIssuerUseCase(fakeTxManager{}, repo, secrets, client, logger)
}

func TestIssuerUseCaseCreate(t *testing.T) {
	repo := newMemoryIssuerRepository()
	secrets := newMemorySecrets()
	useCase := newTestUseCase(repo, secrets, &stubAccountClient{})

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:        "staging issuer",
		Environment:  issuerDomain.EnvironmentStaging,
		ContactEmail: "ops@example.com",
		TosAgreed:    true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issuer.ID)
	assert.NotEmpty(t, issuer.AccountKeyRef)
	assert.True(t, issuer.IsSelected, "first issuer becomes selected")

	keyPEM, err := secrets.Resolve(context.Background(), issuer.AccountKeyRef)
	require.NoError(t, err)
	assert.Contains(t, string(keyPEM), "PRIVATE KEY")
}

func TestIssuerUseCaseCreateSecondStaysUnselected(t *testing.T) {
	repo := newMemoryIssuerRepository()
	useCase := newTestUseCase(repo, newMemorySecrets(), &stubAccountClient{})

	first, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "first", Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)

	second, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "second", Environment: issuerDomain.EnvironmentProduction,
	})
	require.NoError(t, err)
	assert.False(t, second.IsSelected)

	selected, err := useCase.GetSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, selected.ID)
}

func TestIssuerUseCaseCreateInvalidEnvironment(t *testing.T) {
	useCase := newTestUseCase(newMemoryIssuerRepository(), newMemorySecrets(), &stubAccountClient{})

	_, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:       "bad",
		Environment: issuerDomain.Environment("sandbox"),
	})
	assert.ErrorIs(t, err, issuerDomain.ErrInvalidEnvironment)
}

func TestIssuerUseCaseCreateInvalidKeyAlgorithm(t *testing.T) {
	useCase := newTestUseCase(newMemoryIssuerRepository(), newMemorySecrets(), &stubAccountClient{})

	_, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:        "bad",
		Environment:  issuerDomain.EnvironmentStaging,
		KeyAlgorithm: "dsa1024",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIssuerUseCaseSelectSwitches(t *testing.T) {
	repo := newMemoryIssuerRepository()
	useCase := newTestUseCase(repo, newMemorySecrets(), &stubAccountClient{})

	first, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "first", Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)
	second, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "second", Environment: issuerDomain.EnvironmentProduction,
	})
	require.NoError(t, err)

	require.NoError(t, useCase.Select(context.Background(), second.ID))

	selected, err := useCase.GetSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, selected.ID)

	updatedFirst, err := useCase.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, updatedFirst.IsSelected)
}

func TestIssuerUseCaseSelectDisabledRejected(t *testing.T) {
	repo := newMemoryIssuerRepository()
	useCase := newTestUseCase(repo, newMemorySecrets(), &stubAccountClient{})

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "first", Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)

	disabled := true
	_, err = useCase.Update(context.Background(), issuer.ID, UpdateIssuerInput{Disabled: &disabled})
	require.NoError(t, err)

	err = useCase.Select(context.Background(), issuer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestIssuerUseCaseDeleteCascadesAccountKey(t *testing.T) {
	repo := newMemoryIssuerRepository()
	secrets := newMemorySecrets()
	useCase := newTestUseCase(repo, secrets, &stubAccountClient{})

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "first", Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)

	require.NoError(t, useCase.Delete(context.Background(), issuer.ID))

	assert.Contains(t, secrets.deleted, issuer.AccountKeyRef)
	_, err = useCase.Get(context.Background(), issuer.ID)
	assert.ErrorIs(t, err, issuerDomain.ErrIssuerNotFound)
}

func TestIssuerUseCaseEnsureAccount(t *testing.T) {
	repo := newMemoryIssuerRepository()
	client := &stubAccountClient{}
	useCase := newTestUseCase(repo, newMemorySecrets(), client)

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:        "staging issuer",
		Environment:  issuerDomain.EnvironmentStaging,
		ContactEmail: "ops@example.com",
		TosAgreed:    true,
	})
	require.NoError(t, err)

	_, err = useCase.EnsureAccount(context.Background(), issuer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, issuer.Directory(), client.directory)
	assert.Equal(t, "ops@example.com", client.email)
}

func TestIssuerUseCaseEnsureAccountNotReady(t *testing.T) {
	repo := newMemoryIssuerRepository()
	client := &stubAccountClient{}
	useCase := newTestUseCase(repo, newMemorySecrets(), client)

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:       "no contact",
		Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)

	_, err = useCase.EnsureAccount(context.Background(), issuer.ID)
	assert.ErrorIs(t, err, issuerDomain.ErrAccountNotReady)
	assert.Zero(t, client.calls)
}

func TestIssuerUseCaseEnsureAccountClientFailure(t *testing.T) {
	repo := newMemoryIssuerRepository()
	wireErr := issuerDomain.NewAcmeError(issuerDomain.AcmeNetworkError, "directory unreachable", errors.New("dial tcp"))
	client := &stubAccountClient{err: wireErr}
	useCase := newTestUseCase(repo, newMemorySecrets(), client)

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label:        "staging issuer",
		Environment:  issuerDomain.EnvironmentStaging,
		ContactEmail: "ops@example.com",
		TosAgreed:    true,
	})
	require.NoError(t, err)

	_, err = useCase.EnsureAccount(context.Background(), issuer.ID)
	var acmeErr *issuerDomain.AcmeError
	require.ErrorAs(t, err, &acmeErr)
	assert.Equal(t, issuerDomain.AcmeNetworkError, acmeErr.Category)
}

func TestIssuerUseCaseAccountKeyRoundTrip(t *testing.T) {
	repo := newMemoryIssuerRepository()
	useCase := newTestUseCase(repo, newMemorySecrets(), &stubAccountClient{})

	issuer, err := useCase.Create(context.Background(), CreateIssuerInput{
		Label: "first", Environment: issuerDomain.EnvironmentStaging,
	})
	require.NoError(t, err)

	key, err := useCase.AccountKey(context.Background(), issuer)
	require.NoError(t, err)
	assert.NotNil(t, key.Public())
}
