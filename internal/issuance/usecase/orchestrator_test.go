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
	"go.uber.org/goleak"

	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	"github.com/certkeep/certkeep/internal/events"
	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryRequestRepository is an in-memory RequestRepository.
type memoryRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*issuanceDomain.IssuanceRequest
}

func newMemoryRequestRepository() *memoryRequestRepository {
	return &memoryRequestRepository{requests: make(map[string]*issuanceDomain.IssuanceRequest)}
}

func (m *memoryRequestRepository) Create(_ context.Context, request *issuanceDomain.IssuanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneRequest(request)
	m.requests[request.ID] = cp
	return nil
}

func (m *memoryRequestRepository) GetByID(_ context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, issuanceDomain.ErrRequestNotFound
	}
	return cloneRequest(request), nil
}

func (m *memoryRequestRepository) Update(_ context.Context, request *issuanceDomain.IssuanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[request.ID]; !ok {
		return issuanceDomain.ErrRequestNotFound
	}
	m.requests[request.ID] = cloneRequest(request)
	return nil
}

func (m *memoryRequestRepository) List(_ context.Context, _, _ int) ([]*issuanceDomain.IssuanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var requests []*issuanceDomain.IssuanceRequest
	for _, request := range m.requests {
		if !request.Archived {
			requests = append(requests, cloneRequest(request))
		}
	}
	return requests, nil
}

func (m *memoryRequestRepository) ListActive(_ context.Context) ([]*issuanceDomain.IssuanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var requests []*issuanceDomain.IssuanceRequest
	for _, request := range m.requests {
		if !request.State.Terminal() {
			requests = append(requests, cloneRequest(request))
		}
	}
	return requests, nil
}

func cloneRequest(request *issuanceDomain.IssuanceRequest) *issuanceDomain.IssuanceRequest {
	return request.Clone()
}

// stubIssuerService serves a fixed issuer and account key.
type stubIssuerService struct {
	issuer *issuerDomain.IssuerConfig
	key    crypto.Signer
}

func newStubIssuerService(t *testing.T) *stubIssuerService {
	t.Helper()
	key, _, err := issuerAcme.GenerateKey("P256")
	require.NoError(t, err)
	return &stubIssuerService{
		issuer: &issuerDomain.IssuerConfig{
			ID:           "issuer-1",
			Label:        "test issuer",
			Environment:  issuerDomain.EnvironmentStaging,
			ContactEmail: "ops@example.com",
			TosAgreed:    true,
			IsSelected:   true,
		},
		key: key,
	}
}

func (s *stubIssuerService) GetSelected(_ context.Context) (*issuerDomain.IssuerConfig, error) {
	return s.issuer, nil
}

func (s *stubIssuerService) Get(_ context.Context, _ string) (*issuerDomain.IssuerConfig, error) {
	return s.issuer, nil
}

func (s *stubIssuerService) AccountKey(_ context.Context, _ *issuerDomain.IssuerConfig) (crypto.Signer, error) {
	return s.key, nil
}

// scriptedAdapter answers propagation checks from a mutable state map.
type scriptedAdapter struct {
	mu       sync.Mutex
	kind     dnsDomain.ProviderKind
	states   map[string]dnsDomain.RecordState
	present  []string
	cleanups []string
}

func newScriptedAdapter(kind dnsDomain.ProviderKind) *scriptedAdapter {
	return &scriptedAdapter{kind: kind, states: make(map[string]dnsDomain.RecordState)}
}

func (a *scriptedAdapter) setState(fqdn string, state dnsDomain.RecordState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states[fqdn] = state
}

func (a *scriptedAdapter) presented() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.present...)
}

func (a *scriptedAdapter) cleaned() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.cleanups...)
}

func (a *scriptedAdapter) Kind() dnsDomain.ProviderKind { return a.kind }

func (a *scriptedAdapter) PresentTXT(_ context.Context, fqdn, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.present = append(a.present, fqdn)
	return nil
}

func (a *scriptedAdapter) CleanupTXT(_ context.Context, fqdn, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups = append(a.cleanups, fqdn)
	return nil
}

func (a *scriptedAdapter) VerifyPropagation(_ context.Context, fqdn, _ string) (dnsDomain.RecordState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state, ok := a.states[fqdn]; ok {
		return state, nil
	}
	return dnsDomain.StatePending, nil
}

func (a *scriptedAdapter) ValidateCredentials(_ context.Context) error { return nil }

// stubProviderService resolves every domain to one provider and adapter.
type stubProviderService struct {
	provider *dnsDomain.DNSProvider
	adapter  *scriptedAdapter
	noMatch  bool
}

func (s *stubProviderService) Get(_ context.Context, _ string) (*dnsDomain.DNSProvider, error) {
	return s.provider, nil
}

func (s *stubProviderService) Resolve(_ context.Context, _ string) (*dnsDomain.ResolveResult, error) {
	if s.noMatch {
		return nil, dnsDomain.ErrNoProviderMatch
	}
	return &dnsDomain.ResolveResult{Provider: s.provider}, nil
}

func (s *stubProviderService) AdapterFor(_ *dnsDomain.DNSProvider) (adapter.Adapter, error) {
	return s.adapter, nil
}

// stubOrderClient fabricates an order per domain set.
type stubOrderClient struct {
	mu          sync.Mutex
	beginErr    error
	finalizeErr error
	finalized   int
}

func (s *stubOrderClient) BeginOrder(_ context.Context, _ crypto.Signer, _ string, domains []string) (*issuerAcme.Order, error) {
	s.mu.Lock()
	beginErr := s.beginErr
	s.mu.Unlock()
	if beginErr != nil {
		return nil, beginErr
	}

	order := &issuerAcme.Order{
		URI:         "https://ca.example/order/1",
		FinalizeURL: "https://ca.example/finalize/1",
		Domains:     domains,
	}
	for _, domain := range domains {
		order.Challenges = append(order.Challenges, issuerAcme.Challenge{
			Domain: domain,
			FQDN:   "_acme-challenge." + domain,
			Value:  "txt-" + domain,
		})
	}
	return order, nil
}

func (s *stubOrderClient) Finalize(_ context.Context, _ crypto.Signer, _ string, _ *issuerAcme.Order, _ []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	s.finalized++
	return [][]byte{{0x30, 0x82}}, nil
}

func (s *stubOrderClient) finalizeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// memoryCertStore records issued chains.
type memoryCertStore struct {
	mu     sync.Mutex
	stored int
}

func (m *memoryCertStore) StoreIssued(_ context.Context, requestID string, _ []string, _ [][]byte, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored++
	return "cert-for-" + requestID, nil
}

type testHarness struct {
	repo      *memoryRequestRepository
	issuers   *stubIssuerService
	providers *stubProviderService
	client    *stubOrderClient
	certs     *memoryCertStore
	bus       *events.Bus
	useCase   IssuanceUseCase
}

func newTestHarness(t *testing.T, kind dnsDomain.ProviderKind) *testHarness {
	t.Helper()

	h := &testHarness{
		repo:    newMemoryRequestRepository(),
		issuers: newStubIssuerService(t),
		providers: &stubProviderService{
			provider: &dnsDomain.DNSProvider{ID: "prov-1", Kind: kind, DomainSuffixes: []string{"example.com"}},
			adapter:  newScriptedAdapter(kind),
		},
		client: &stubOrderClient{},
		certs:  &memoryCertStore{},
		bus:    events.NewBus(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.useCase = NewOrchestrator(
		fakeTxManager{},
		h.repo,
		h.issuers,
		h.providers,
		h.client,
		h.certs,
		h.bus,
		Options{
			PollInterval:       5 * time.Millisecond,
			PropagationTimeout: 250 * time.Millisecond,
			FinalizeTimeout:    time.Second,
			LookupsPerSecond:   10000,
			CleanupTimeout:     time.Second,
		},
		logger,
	)

	t.Cleanup(func() {
		h.useCase.Close()
		h.bus.Close()
	})
	return h
}

func (h *testHarness) waitForState(t *testing.T, id string, state issuanceDomain.RequestState) *issuanceDomain.IssuanceRequest {
	t.Helper()
	var request *issuanceDomain.IssuanceRequest
	assert.Eventually(t, func() bool {
		var err error
		request, err = h.repo.GetByID(context.Background(), id)
		return err == nil && request.State == state
	}, 3*time.Second, 2*time.Millisecond, "request never reached %s", state)
	return request
}

func TestOrchestratorAutomatedRun(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)

	// The response carries the published records; the poller then sees
	// them propagate.
	require.Len(t, started.Records, 1)
	assert.Equal(t, "_acme-challenge.www.example.com", started.Records[0].FQDN)
	assert.Equal(t, "txt-www.example.com", started.Records[0].Value)
	assert.Equal(t, issuanceDomain.StatePropagating, started.State)
	assert.Equal(t, []string{"_acme-challenge.www.example.com"}, h.providers.adapter.presented())
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)

	request := h.waitForState(t, started.ID, issuanceDomain.StateCompleted)
	assert.Equal(t, "cert-for-"+started.ID, request.CertificateID)
	assert.NotNil(t, request.CompletedAt)
	assert.Equal(t, 1, h.client.finalizeCount())
	assert.Equal(t, []string{"_acme-challenge.www.example.com"}, h.providers.adapter.cleaned())
}

func TestOrchestratorManualPauseAndComplete(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindManual)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)

	// The run pauses before Start returns, records included in the response.
	assert.Equal(t, issuanceDomain.StateManualIntervention, started.State)
	require.Len(t, started.Records, 1)
	assert.True(t, started.Records[0].Manual)
	assert.Equal(t, "_acme-challenge.www.example.com", started.Records[0].FQDN)
	assert.Empty(t, h.providers.adapter.presented(), "manual providers never push records")

	// User publishes the record out of band, then resumes the run.
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)
	resumed, err := h.useCase.Complete(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, issuanceDomain.StatePropagating, resumed.State)

	request := h.waitForState(t, started.ID, issuanceDomain.StateCompleted)
	assert.NotEmpty(t, request.CertificateID)
	assert.Empty(t, h.providers.adapter.cleaned(), "manual records are left to the user")
}

func TestOrchestratorCompleteIdempotentAfterSuccess(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)
	completed := h.waitForState(t, started.ID, issuanceDomain.StateCompleted)

	again, err := h.useCase.Complete(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, issuanceDomain.StateCompleted, again.State)
	assert.Equal(t, completed.CertificateID, again.CertificateID)
	assert.Equal(t, 1, h.client.finalizeCount(), "completing again never refinalizes")
}

func TestOrchestratorCompleteFailedRunRejected(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	require.NoError(t, h.useCase.Cancel(context.Background(), started.ID))
	h.waitForState(t, started.ID, issuanceDomain.StateFailed)

	_, err = h.useCase.Complete(context.Background(), started.ID)
	assert.ErrorIs(t, err, issuanceDomain.ErrRequestTerminal)
}

func TestOrchestratorNoProviderFallsBackToManual(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)
	h.providers.noMatch = true

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)

	paused := h.waitForState(t, started.ID, issuanceDomain.StateManualIntervention)
	require.Len(t, paused.Records, 1)
	assert.True(t, paused.Records[0].Manual)
	assert.Equal(t, dnsDomain.KindManual, paused.Records[0].AdapterKind)
}

func TestOrchestratorDNSTimeoutThenRetry(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)

	// The record never propagates inside the budget.
	failed := h.waitForState(t, started.ID, issuanceDomain.StateFailed)
	assert.Equal(t, issuanceDomain.FailureDNSTimeout, failed.FailureCategory)
	assert.True(t, failed.Retryable)
	assert.NotEmpty(t, h.providers.adapter.cleaned(), "cleanup runs on failure too")

	// Retry with propagation now working.
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)
	retried, err := h.useCase.RetryDNS(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, issuanceDomain.StatePropagating, retried.State)

	request := h.waitForState(t, started.ID, issuanceDomain.StateCompleted)
	assert.NotEmpty(t, request.CertificateID)
}

func TestOrchestratorFinalizeFailureThenRetry(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)
	h.client.finalizeErr = issuerDomain.NewAcmeError(issuerDomain.AcmeValidationFailed, "order invalid", nil)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)

	failed := h.waitForState(t, started.ID, issuanceDomain.StateFailed)
	assert.Equal(t, issuanceDomain.FailureFinalize, failed.FailureCategory)
	assert.True(t, failed.Retryable)

	h.client.mu.Lock()
	h.client.finalizeErr = nil
	h.client.mu.Unlock()

	_, err = h.useCase.RetryFinalize(context.Background(), started.ID)
	require.NoError(t, err)

	request := h.waitForState(t, started.ID, issuanceDomain.StateCompleted)
	assert.NotEmpty(t, request.CertificateID)
}

func TestOrchestratorRetryRejectsWrongCategory(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.waitForState(t, started.ID, issuanceDomain.StateFailed)

	_, err = h.useCase.RetryFinalize(context.Background(), started.ID)
	assert.ErrorIs(t, err, issuanceDomain.ErrNotRetryable)
}

func TestOrchestratorCancelRunning(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.waitForState(t, started.ID, issuanceDomain.StatePropagating)

	require.NoError(t, h.useCase.Cancel(context.Background(), started.ID))

	failed := h.waitForState(t, started.ID, issuanceDomain.StateFailed)
	assert.Equal(t, issuanceDomain.FailureCancelled, failed.FailureCategory)
	assert.False(t, failed.Retryable)
	assert.NotEmpty(t, h.providers.adapter.cleaned())
}

func TestOrchestratorCancelPaused(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindManual)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.waitForState(t, started.ID, issuanceDomain.StateManualIntervention)

	require.NoError(t, h.useCase.Cancel(context.Background(), started.ID))

	failed := h.waitForState(t, started.ID, issuanceDomain.StateFailed)
	assert.Equal(t, issuanceDomain.FailureCancelled, failed.FailureCategory)
}

func TestOrchestratorStartValidation(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	_, err := h.useCase.Start(context.Background(), StartInput{})
	assert.Error(t, err)

	_, err = h.useCase.Start(context.Background(), StartInput{
		Domains:      []string{"www.example.com"},
		KeyAlgorithm: "dsa1024",
	})
	assert.Error(t, err)
}

func TestOrchestratorStartRequiresReadyIssuer(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)
	h.issuers.issuer.TosAgreed = false

	_, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	assert.ErrorIs(t, err, issuerDomain.ErrAccountNotReady)
}

func TestOrchestratorArchive(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)
	h.waitForState(t, started.ID, issuanceDomain.StateCompleted)

	require.NoError(t, h.useCase.Archive(context.Background(), started.ID))

	listed, err := h.useCase.List(context.Background(), 0, 50)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestOrchestratorArchiveActiveRejected(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindManual)

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.waitForState(t, started.ID, issuanceDomain.StateManualIntervention)

	err = h.useCase.Archive(context.Background(), started.ID)
	assert.Error(t, err)

	require.NoError(t, h.useCase.Cancel(context.Background(), started.ID))
	h.waitForState(t, started.ID, issuanceDomain.StateFailed)
}

func TestOrchestratorResumeActive(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	// Simulate a run persisted mid-propagation by a previous process.
	now := time.Now().UTC()
	request := &issuanceDomain.IssuanceRequest{
		ID:       issuanceDomain.NewRequestID(),
		IssuerID: "issuer-1",
		Domains:  []string{"www.example.com"},
		State:    issuanceDomain.StatePropagating,
		Records: []issuanceDomain.ChallengeRecord{{
			Domain:      "www.example.com",
			FQDN:        "_acme-challenge.www.example.com",
			Value:       "txt-www.example.com",
			ProviderID:  "prov-1",
			AdapterKind: dnsDomain.KindCloudflare,
			State:       dnsDomain.StatePending,
		}},
		OrderJSON: []byte(`{"uri":"https://ca.example/order/1","finalize_url":"https://ca.example/finalize/1","domains":["www.example.com"]}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, h.repo.Create(context.Background(), request))

	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)
	require.NoError(t, h.useCase.ResumeActive(context.Background()))

	resumed := h.waitForState(t, request.ID, issuanceDomain.StateCompleted)
	assert.NotEmpty(t, resumed.CertificateID)
}

func TestOrchestratorStartOrderFailure(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)
	h.client.beginErr = issuerDomain.NewAcmeError(issuerDomain.AcmeRateLimited, "too many orders", nil)

	_, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.Error(t, err)

	// The run is persisted in the failed state for inspection.
	listed, listErr := h.useCase.List(context.Background(), 0, 50)
	require.NoError(t, listErr)
	require.Len(t, listed, 1)
	assert.Equal(t, issuanceDomain.StateFailed, listed[0].State)
}

func TestOrchestratorResumeInterruptedStart(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)

	// A previous process died between persisting the request and opening
	// the order. There is no order to pick up, so the run cannot resume.
	now := time.Now().UTC()
	request := &issuanceDomain.IssuanceRequest{
		ID:        issuanceDomain.NewRequestID(),
		IssuerID:  "issuer-1",
		Domains:   []string{"www.example.com"},
		State:     issuanceDomain.StateStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, h.repo.Create(context.Background(), request))

	require.NoError(t, h.useCase.ResumeActive(context.Background()))

	failed := h.waitForState(t, request.ID, issuanceDomain.StateFailed)
	assert.False(t, failed.Retryable, "no order exists, so a retry can never succeed")
}

func TestOrchestratorFailurePreservesDetail(t *testing.T) {
	h := newTestHarness(t, dnsDomain.KindCloudflare)
	h.client.finalizeErr = errors.New("connection reset")

	started, err := h.useCase.Start(context.Background(), StartInput{Domains: []string{"www.example.com"}})
	require.NoError(t, err)
	h.providers.adapter.setState("_acme-challenge.www.example.com", dnsDomain.StateFound)

	failed := h.waitForState(t, started.ID, issuanceDomain.StateFailed)
	assert.Contains(t, failed.FailureDetail, "connection reset")
}
