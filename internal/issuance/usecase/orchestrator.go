// Package usecase implements the issuance orchestrator: it opens ACME
// orders, publishes DNS challenge records through the provider adapters,
// watches propagation, and finalizes certificates, surviving pauses and
// retryable failures through persisted run state.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/certkeep/certkeep/internal/database"
	"github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	"github.com/certkeep/certkeep/internal/events"
	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// Options tune the orchestrator's polling and budgets.
type Options struct {
	// PollInterval is the delay between propagation sweeps.
	PollInterval time.Duration
	// PropagationTimeout bounds how long a run waits for DNS to converge.
	PropagationTimeout time.Duration
	// FinalizeTimeout bounds the ACME validate-and-finalize exchange.
	FinalizeTimeout time.Duration
	// LookupsPerSecond caps DNS lookups across all concurrent runs.
	LookupsPerSecond float64
	// CleanupTimeout bounds the best-effort record cleanup.
	CleanupTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Second
	}
	if o.PropagationTimeout <= 0 {
		o.PropagationTimeout = 10 * time.Minute
	}
	if o.FinalizeTimeout <= 0 {
		o.FinalizeTimeout = 2 * time.Minute
	}
	if o.LookupsPerSecond <= 0 {
		o.LookupsPerSecond = 5
	}
	if o.CleanupTimeout <= 0 {
		o.CleanupTimeout = 30 * time.Second
	}
	return o
}

// StateEvent is the payload of issuance state change events.
type StateEvent struct {
	RequestID       string                           `json:"request_id"`
	State           issuanceDomain.RequestState      `json:"state"`
	FailureCategory issuanceDomain.FailureCategory   `json:"failure_category,omitempty"`
	Records         []issuanceDomain.ChallengeRecord `json:"records,omitempty"`
}

// RecordEvent is the payload of challenge record update events.
type RecordEvent struct {
	RequestID string                `json:"request_id"`
	Domain    string                `json:"domain"`
	FQDN      string                `json:"fqdn"`
	State     dnsDomain.RecordState `json:"state"`
}

// orchestrator implements IssuanceUseCase.
type orchestrator struct {
	txManager database.TxManager
	repo      RequestRepository
	issuers   IssuerService
	providers ProviderService
	client    OrderClient
	certs     CertificateStore
	bus       events.Publisher
	limiter   *rate.Limiter
	group     singleflight.Group
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the issuance use case.
func NewOrchestrator(
	txManager database.TxManager,
	repo RequestRepository,
	issuers IssuerService,
	providers ProviderService,
	client OrderClient,
	certs CertificateStore,
	bus events.Publisher,
	opts Options,
	logger *slog.Logger,
) IssuanceUseCase {
	opts = opts.withDefaults()
	return &orchestrator{
		txManager: txManager,
		repo:      repo,
		issuers:   issuers,
		providers: providers,
		client:    client,
		certs:     certs,
		bus:       bus,
		limiter:   rate.NewLimiter(rate.Limit(opts.LookupsPerSecond), int(opts.LookupsPerSecond)+1),
		opts:      opts,
		logger:    logger,
		running:   make(map[string]context.CancelFunc),
	}
}

// Start validates the run parameters, persists the request, opens the ACME
// order, and publishes the challenge records before returning, so the
// response already carries the TXT records the caller must know about.
// Propagation and finalize continue in a supervised goroutine; a run whose
// records need manual publishing pauses instead.
func (o *orchestrator) Start(ctx context.Context, input StartInput) (*issuanceDomain.IssuanceRequest, error) {
	if len(input.Domains) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "at least one domain is required")
	}
	if _, err := issuerAcme.KeyTypeFromAlgorithm(input.KeyAlgorithm); err != nil {
		return nil, err
	}

	var issuer *issuerDomain.IssuerConfig
	var err error
	if input.IssuerID != "" {
		issuer, err = o.issuers.Get(ctx, input.IssuerID)
	} else {
		issuer, err = o.issuers.GetSelected(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := issuer.Ready(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &issuanceDomain.IssuanceRequest{
		ID:           issuanceDomain.NewRequestID(),
		IssuerID:     issuer.ID,
		Domains:      input.Domains,
		KeyAlgorithm: input.KeyAlgorithm,
		State:        issuanceDomain.StateStarted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = o.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return o.repo.Create(txCtx, request)
	})
	if err != nil {
		return nil, err
	}
	o.publishState(request)

	if err := o.begin(ctx, issuer, request); err != nil {
		o.fail(request, err)
		return nil, err
	}

	if request.State == issuanceDomain.StateManualIntervention {
		o.logger.Info("issuance awaiting manual records",
			slog.String("request_id", request.ID),
		)
		return request, nil
	}

	o.launch(request.Clone(), o.runFromPropagation)

	o.logger.Info("issuance started",
		slog.String("request_id", request.ID),
		slog.Any("domains", request.Domains),
	)
	return request, nil
}

// begin drives the synchronous half of a run: it opens the order, computes
// the DNS-01 records, and publishes them through the automated adapters,
// leaving the run paused for the user or ready to propagate.
func (o *orchestrator) begin(ctx context.Context, issuer *issuerDomain.IssuerConfig, request *issuanceDomain.IssuanceRequest) error {
	key, err := o.issuers.AccountKey(ctx, issuer)
	if err != nil {
		return err
	}

	order, err := o.client.BeginOrder(ctx, key, issuer.Directory(), request.Domains)
	if err != nil {
		return err
	}

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}
	request.OrderJSON = orderJSON

	records, err := o.buildRecords(ctx, order)
	if err != nil {
		return err
	}
	request.Records = records

	if err := o.transition(ctx, request, issuanceDomain.StateDNSPending); err != nil {
		return err
	}
	if err := o.presentRecords(ctx, request); err != nil {
		return err
	}

	if len(request.ManualRecords()) > 0 {
		return o.transition(ctx, request, issuanceDomain.StateManualIntervention)
	}
	return o.transition(ctx, request, issuanceDomain.StatePropagating)
}

// Complete resumes a run paused for manual intervention. Concurrent calls
// for the same request collapse into one resume, and completing a run that
// already issued its certificate is a no-op returning the stored result.
func (o *orchestrator) Complete(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	result, err, _ := o.group.Do(id, func() (any, error) {
		request, err := o.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		switch request.State {
		case issuanceDomain.StateCompleted:
			return request, nil
		case issuanceDomain.StatePropagating, issuanceDomain.StateFinalizing:
			// Already resumed; nothing to do.
			return request, nil
		case issuanceDomain.StateManualIntervention:
		default:
			if request.State.Terminal() {
				return nil, issuanceDomain.ErrRequestTerminal
			}
			return nil, issuanceDomain.ErrNotAwaitingUser
		}

		if err := o.transition(ctx, request, issuanceDomain.StatePropagating); err != nil {
			return nil, err
		}
		o.launch(request.Clone(), o.runFromPropagation)
		return request, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*issuanceDomain.IssuanceRequest), nil
}

// RetryDNS restarts propagation checking after a DNS timeout, keeping the
// run's ACME order and published records.
func (o *orchestrator) RetryDNS(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	return o.retry(ctx, id, issuanceDomain.FailureDNSTimeout, issuanceDomain.StatePropagating, o.runFromPropagation)
}

// RetryFinalize reruns the finalize step after a retryable finalize failure.
func (o *orchestrator) RetryFinalize(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	return o.retry(ctx, id, issuanceDomain.FailureFinalize, issuanceDomain.StateFinalizing, o.runFromFinalize)
}

func (o *orchestrator) retry(
	ctx context.Context,
	id string,
	category issuanceDomain.FailureCategory,
	state issuanceDomain.RequestState,
	phase func(ctx context.Context, request *issuanceDomain.IssuanceRequest),
) (*issuanceDomain.IssuanceRequest, error) {
	result, err, _ := o.group.Do("retry:"+id, func() (any, error) {
		request, err := o.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if request.State != issuanceDomain.StateFailed || !request.Retryable || request.FailureCategory != category {
			return nil, issuanceDomain.ErrNotRetryable
		}

		request.FailureCategory = ""
		request.FailureDetail = ""
		request.Retryable = false
		if err := o.transition(ctx, request, state); err != nil {
			return nil, err
		}
		o.launch(request.Clone(), phase)
		return request, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*issuanceDomain.IssuanceRequest), nil
}

// Cancel aborts a run. A running goroutine is interrupted; a paused run is
// failed directly. Either way published records are cleaned up best effort.
func (o *orchestrator) Cancel(ctx context.Context, id string) error {
	request, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if request.State.Terminal() {
		return issuanceDomain.ErrRequestTerminal
	}

	o.mu.Lock()
	cancel, active := o.running[id]
	o.mu.Unlock()

	if active {
		cancel()
		return nil
	}

	o.fail(request, issuanceDomain.NewCancelledError())
	return nil
}

// Get returns one run.
func (o *orchestrator) Get(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	return o.repo.GetByID(ctx, id)
}

// List returns non-archived runs, newest first.
func (o *orchestrator) List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error) {
	return o.repo.List(ctx, offset, limit)
}

// Archive hides a finished run from listings.
func (o *orchestrator) Archive(ctx context.Context, id string) error {
	request, err := o.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !request.State.Terminal() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "only finished runs can be archived")
	}

	request.Archived = true
	request.UpdatedAt = time.Now().UTC()
	return o.persist(ctx, request)
}

// ResumeActive re-attaches supervision to runs interrupted by a restart.
// Runs that never reached an order are failed; paused runs stay paused.
func (o *orchestrator) ResumeActive(ctx context.Context) error {
	requests, err := o.repo.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, request := range requests {
		switch request.State {
		case issuanceDomain.StateStarted:
			// No order was persisted, so there is nothing to retry from.
			o.fail(request, errors.New("interrupted before challenge records were published"))
		case issuanceDomain.StateDNSPending, issuanceDomain.StatePropagating:
			if request.State == issuanceDomain.StateDNSPending {
				if err := o.transition(ctx, request, issuanceDomain.StatePropagating); err != nil {
					continue
				}
			}
			o.launch(request, o.runFromPropagation)
		case issuanceDomain.StateFinalizing:
			o.launch(request, o.runFromFinalize)
		}
	}
	return nil
}

// Close stops every supervised run and waits for the goroutines to exit.
func (o *orchestrator) Close() {
	o.mu.Lock()
	for _, cancel := range o.running {
		cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// launch runs a phase in a supervised goroutine tied to the request id.
func (o *orchestrator) launch(request *issuanceDomain.IssuanceRequest, phase func(ctx context.Context, request *issuanceDomain.IssuanceRequest)) {
	runCtx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	o.running[request.ID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			delete(o.running, request.ID)
			o.mu.Unlock()
			cancel()
		}()
		phase(runCtx, request)
	}()
}

// runFromPropagation polls the challenge records until they all resolve,
// then finalizes. A manual record observed with wrong content pauses the
// run again instead of burning the remaining budget.
func (o *orchestrator) runFromPropagation(ctx context.Context, request *issuanceDomain.IssuanceRequest) {
	deadline := time.Now().Add(o.opts.PropagationTimeout)

	for {
		if err := ctx.Err(); err != nil {
			o.fail(request, err)
			return
		}

		pauseForUser, err := o.verifyRecords(ctx, request)
		if err != nil {
			o.fail(request, err)
			return
		}

		if request.AllRecordsFound() {
			if err := o.transition(ctx, request, issuanceDomain.StateFinalizing); err != nil {
				o.fail(request, err)
				return
			}
			o.runFromFinalize(ctx, request)
			return
		}

		if pauseForUser {
			if err := o.transition(ctx, request, issuanceDomain.StateManualIntervention); err != nil {
				o.fail(request, err)
			}
			return
		}

		if time.Now().After(deadline) {
			o.fail(request, issuanceDomain.NewDNSTimeoutError(nil))
			return
		}

		select {
		case <-ctx.Done():
			o.fail(request, ctx.Err())
			return
		case <-time.After(o.opts.PollInterval):
		}
	}
}

// runFromFinalize generates the certificate key, drives the ACME finalize
// exchange, and records the issued certificate.
func (o *orchestrator) runFromFinalize(ctx context.Context, request *issuanceDomain.IssuanceRequest) {
	issuer, err := o.issuers.Get(ctx, request.IssuerID)
	if err != nil {
		o.fail(request, err)
		return
	}
	accountKey, err := o.issuers.AccountKey(ctx, issuer)
	if err != nil {
		o.fail(request, err)
		return
	}

	var order issuerAcme.Order
	if err := json.Unmarshal(request.OrderJSON, &order); err != nil {
		o.fail(request, issuanceDomain.NewFinalizeError(err))
		return
	}

	keyType, err := issuerAcme.KeyTypeFromAlgorithm(request.KeyAlgorithm)
	if err != nil {
		o.fail(request, err)
		return
	}
	certKey, keyPEM, err := issuerAcme.GenerateKey(keyType)
	if err != nil {
		o.fail(request, issuanceDomain.NewFinalizeError(err))
		return
	}
	defer vaultDomain.Zero(keyPEM)

	csr, err := issuerAcme.CreateCSR(certKey, request.Domains)
	if err != nil {
		o.fail(request, issuanceDomain.NewFinalizeError(err))
		return
	}

	finalizeCtx, cancel := context.WithTimeout(ctx, o.opts.FinalizeTimeout)
	defer cancel()

	chain, err := o.client.Finalize(finalizeCtx, accountKey, issuer.Directory(), &order, csr)
	if err != nil {
		if ctx.Err() != nil {
			o.fail(request, ctx.Err())
			return
		}
		o.fail(request, issuanceDomain.NewFinalizeError(err))
		return
	}

	certificateID, err := o.certs.StoreIssued(ctx, request.ID, request.Domains, chain, keyPEM)
	if err != nil {
		o.fail(request, issuanceDomain.NewFinalizeError(err))
		return
	}

	o.cleanup(request)

	now := time.Now().UTC()
	request.CertificateID = certificateID
	request.CompletedAt = &now
	if err := o.transition(ctx, request, issuanceDomain.StateCompleted); err != nil {
		o.logger.Error("failed to persist completed run",
			slog.String("request_id", request.ID),
			slog.Any("error", err),
		)
		return
	}

	o.logger.Info("issuance completed",
		slog.String("request_id", request.ID),
		slog.String("certificate_id", certificateID),
	)
}

// buildRecords resolves a provider for each challenge. Domains with no
// registered provider fall back to manual handling.
func (o *orchestrator) buildRecords(ctx context.Context, order *issuerAcme.Order) ([]issuanceDomain.ChallengeRecord, error) {
	var records []issuanceDomain.ChallengeRecord
	for _, challenge := range order.Challenges {
		record := issuanceDomain.ChallengeRecord{
			Domain:      challenge.Domain,
			FQDN:        challenge.FQDN,
			Value:       challenge.Value,
			AdapterKind: dnsDomain.KindManual,
			Manual:      true,
			State:       dnsDomain.StatePending,
		}

		resolved, err := o.providers.Resolve(ctx, challenge.Domain)
		switch {
		case errors.Is(err, dnsDomain.ErrNoProviderMatch):
			// Keep the manual fallback.
		case err != nil:
			return nil, err
		default:
			record.ProviderID = resolved.Provider.ID
			record.AdapterKind = resolved.Provider.Kind
			record.Manual = resolved.Provider.Kind == dnsDomain.KindManual
		}

		records = append(records, record)
	}
	return records, nil
}

// presentRecords publishes TXT records through every automated adapter.
func (o *orchestrator) presentRecords(ctx context.Context, request *issuanceDomain.IssuanceRequest) error {
	for i := range request.Records {
		record := &request.Records[i]
		if record.Manual {
			continue
		}

		dnsAdapter, err := o.adapterForRecord(ctx, record)
		if err != nil {
			return err
		}
		if err := dnsAdapter.PresentTXT(ctx, record.FQDN, record.Value); err != nil {
			record.State = dnsDomain.StateError
			record.Detail = err.Error()
			return err
		}
	}
	return o.persist(ctx, request)
}

// verifyRecords sweeps every unresolved record once. It reports whether a
// manual record needs user attention again.
func (o *orchestrator) verifyRecords(ctx context.Context, request *issuanceDomain.IssuanceRequest) (bool, error) {
	pauseForUser := false
	changed := false

	for i := range request.Records {
		record := &request.Records[i]
		if record.State == dnsDomain.StateFound {
			continue
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return false, err
		}

		dnsAdapter, err := o.adapterForRecord(ctx, record)
		if err != nil {
			return false, err
		}

		state, err := dnsAdapter.VerifyPropagation(ctx, record.FQDN, record.Value)
		if err != nil && ctx.Err() != nil {
			return false, ctx.Err()
		}

		detail := ""
		if err != nil {
			detail = err.Error()
		}
		if state != record.State || detail != record.Detail {
			record.State = state
			record.Detail = detail
			changed = true
			o.bus.Publish(events.Event{
				Type: events.TypeIssuanceRecord,
				Data: RecordEvent{
					RequestID: request.ID,
					Domain:    record.Domain,
					FQDN:      record.FQDN,
					State:     record.State,
				},
			})
		}

		if record.Manual && record.State == dnsDomain.StateWrongContent {
			pauseForUser = true
		}
	}

	if changed {
		request.UpdatedAt = time.Now().UTC()
		if err := o.persist(ctx, request); err != nil {
			return false, err
		}
	}
	return pauseForUser, nil
}

// cleanup removes records this run created. Best effort: it runs on every
// outcome and only logs failures.
func (o *orchestrator) cleanup(request *issuanceDomain.IssuanceRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.CleanupTimeout)
	defer cancel()

	for i := range request.Records {
		record := &request.Records[i]
		if record.Manual {
			continue
		}

		dnsAdapter, err := o.adapterForRecord(ctx, record)
		if err == nil {
			err = dnsAdapter.CleanupTXT(ctx, record.FQDN, record.Value)
		}
		if err != nil {
			o.logger.Warn("challenge record cleanup failed",
				slog.String("request_id", request.ID),
				slog.String("fqdn", record.FQDN),
				slog.Any("error", err),
			)
		}
	}
}

func (o *orchestrator) adapterForRecord(ctx context.Context, record *issuanceDomain.ChallengeRecord) (adapter.Adapter, error) {
	if record.ProviderID == "" {
		return o.providers.AdapterFor(&dnsDomain.DNSProvider{Kind: dnsDomain.KindManual})
	}
	provider, err := o.providers.Get(ctx, record.ProviderID)
	if err != nil {
		return nil, err
	}
	return o.providers.AdapterFor(provider)
}

// transition moves the run to the next state and persists it.
func (o *orchestrator) transition(ctx context.Context, request *issuanceDomain.IssuanceRequest, next issuanceDomain.RequestState) error {
	if request.State == next {
		return nil
	}
	if !request.State.CanTransitionTo(next) {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "cannot move issuance from %s to %s", request.State, next)
	}

	request.State = next
	request.UpdatedAt = time.Now().UTC()
	if err := o.persist(ctx, request); err != nil {
		return err
	}
	o.publishState(request)
	return nil
}

// fail marks the run failed with a categorized error, after best-effort
// record cleanup.
func (o *orchestrator) fail(request *issuanceDomain.IssuanceRequest, err error) {
	category, retryable := issuanceDomain.Categorize(err)

	o.cleanup(request)

	now := time.Now().UTC()
	request.State = issuanceDomain.StateFailed
	request.FailureCategory = category
	request.FailureDetail = err.Error()
	request.Retryable = retryable
	request.UpdatedAt = now
	request.CompletedAt = &now

	if persistErr := o.persist(context.Background(), request); persistErr != nil {
		o.logger.Error("failed to persist failed run",
			slog.String("request_id", request.ID),
			slog.Any("error", persistErr),
		)
	}
	o.publishState(request)

	o.logger.Warn("issuance failed",
		slog.String("request_id", request.ID),
		slog.String("category", string(category)),
		slog.Bool("retryable", retryable),
		slog.Any("error", err),
	)
}

// persist writes the run state. Run goroutines may be cancelled mid-write,
// so persistence detaches from the caller's cancellation.
func (o *orchestrator) persist(ctx context.Context, request *issuanceDomain.IssuanceRequest) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	return o.txManager.WithTx(writeCtx, func(txCtx context.Context) error {
		return o.repo.Update(txCtx, request)
	})
}

func (o *orchestrator) publishState(request *issuanceDomain.IssuanceRequest) {
	o.bus.Publish(events.Event{
		Type: events.TypeIssuanceState,
		Data: StateEvent{
			RequestID:       request.ID,
			State:           request.State,
			FailureCategory: request.FailureCategory,
			Records:         request.Records,
		},
	})
}
