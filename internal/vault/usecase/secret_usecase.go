package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/certkeep/certkeep/internal/database"
	"github.com/certkeep/certkeep/internal/events"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
	vaultService "github.com/certkeep/certkeep/internal/vault/service"
)

// secretStore implements SecretStore with envelope encryption and an idle
// re-lock timer.
type secretStore struct {
	txManager   database.TxManager
	repo        SecretRepository
	wrapper     vaultService.KeyWrapper
	bus         events.Publisher
	idleTimeout time.Duration
	logger      *slog.Logger

	mu        sync.Mutex
	locked    bool
	idleTimer *time.Timer
	closed    bool
}

// NewSecretStore creates the credential-custody use case. The vault starts
// locked; the first Resolve unlocks it implicitly.
func NewSecretStore(
	txManager database.TxManager,
	repo SecretRepository,
	wrapper vaultService.KeyWrapper,
	bus events.Publisher,
	idleTimeout time.Duration,
	logger *slog.Logger,
) SecretStore {
	return &secretStore{
		txManager:   txManager,
		repo:        repo,
		wrapper:     wrapper,
		bus:         bus,
		idleTimeout: idleTimeout,
		logger:      logger,
		locked:      true,
	}
}

// Create stores a new credential under a fresh reference id.
func (s *secretStore) Create(
	ctx context.Context,
	kind vaultDomain.SecretKind,
	label string,
	value []byte,
) (*vaultDomain.SecretRef, error) {
	if !kind.Valid() {
		return nil, vaultDomain.ErrInvalidKind
	}

	now := time.Now().UTC()
	secret := &vaultDomain.Secret{
		SecretRef: vaultDomain.SecretRef{
			ID:        vaultDomain.NewRefID(),
			Kind:      kind,
			Label:     label,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.seal(ctx, secret, value); err != nil {
		return nil, err
	}

	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.Create(txCtx, secret)
	})
	if err != nil {
		return nil, err
	}

	ref := secret.SecretRef
	return &ref, nil
}

// Resolve decrypts and returns the credential bytes for a reference id.
func (s *secretStore) Resolve(ctx context.Context, id string) ([]byte, error) {
	secret, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Unwrapping requires the keeper (and user presence, when gated); a
	// success doubles as the session unlock.
	dataKey, err := s.wrapper.Unwrap(ctx, secret.EncryptedDataKey)
	if err != nil {
		return nil, err
	}
	defer vaultDomain.Zero(dataKey)

	cipher, err := vaultService.NewChaCha20Poly1305(dataKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := cipher.Decrypt(secret.Ciphertext, secret.Nonce, []byte(secret.ID))
	if err != nil {
		return nil, err
	}

	s.touch()
	return plaintext, nil
}

// Update rotates the stored value, preserving the reference id.
func (s *secretStore) Update(
	ctx context.Context,
	id string,
	value []byte,
	label string,
) (*vaultDomain.SecretRef, error) {
	secret, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if label != "" {
		secret.Label = label
	}
	secret.UpdatedAt = time.Now().UTC()

	if err := s.seal(ctx, secret, value); err != nil {
		return nil, err
	}

	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.Update(txCtx, secret)
	})
	if err != nil {
		return nil, err
	}

	ref := secret.SecretRef
	return &ref, nil
}

// Delete removes a credential permanently.
func (s *secretStore) Delete(ctx context.Context, id string) error {
	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

// DeleteMany removes a set of credentials in one transaction.
func (s *secretStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteByIDs(txCtx, ids)
	})
}

// Get returns reference metadata for one id.
func (s *secretStore) Get(ctx context.Context, id string) (*vaultDomain.SecretRef, error) {
	secret, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := secret.SecretRef
	return &ref, nil
}

// List returns reference metadata, newest first.
func (s *secretStore) List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error) {
	return s.repo.List(ctx, offset, limit)
}

// Lock re-locks the vault immediately.
func (s *secretStore) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

// Locked reports the current lock state.
func (s *secretStore) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Close stops the idle timer and releases the keeper.
func (s *secretStore) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()

	return s.wrapper.Close()
}

// seal envelope encrypts the value into the secret record: a fresh data key
// encrypts the value, and the keeper wraps the data key.
func (s *secretStore) seal(ctx context.Context, secret *vaultDomain.Secret, value []byte) error {
	dataKey, err := vaultService.NewDataKey()
	if err != nil {
		return err
	}
	defer vaultDomain.Zero(dataKey)

	cipher, err := vaultService.NewChaCha20Poly1305(dataKey)
	if err != nil {
		return err
	}

	ciphertext, nonce, err := cipher.Encrypt(value, []byte(secret.ID))
	if err != nil {
		return err
	}

	wrapped, err := s.wrapper.Wrap(ctx, dataKey)
	if err != nil {
		return err
	}

	secret.EncryptedDataKey = wrapped
	secret.Ciphertext = ciphertext
	secret.Nonce = nonce
	return nil
}

// touch marks the vault unlocked and arms the idle re-lock timer.
func (s *secretStore) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if s.locked {
		s.locked = false
		s.logger.Info("vault unlocked")
		if s.bus != nil {
			s.bus.Publish(events.Event{Type: events.TypeVaultUnlocked})
		}
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	if s.idleTimeout > 0 {
		s.idleTimer = time.AfterFunc(s.idleTimeout, s.Lock)
	}
}

// lockLocked transitions to the locked state. Caller holds s.mu.
func (s *secretStore) lockLocked() {
	if s.locked || s.closed {
		return
	}

	s.locked = true
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	s.logger.Info("vault locked")
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.TypeVaultLocked})
	}
}
