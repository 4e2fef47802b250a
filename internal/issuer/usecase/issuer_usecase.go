// Package usecase implements issuer configuration management and the ACME
// account lifecycle on top of the vault and the wire client.
package usecase

import (
	"context"
	"crypto"
	"errors"
	"log/slog"
	"time"

	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// issuerUseCase implements IssuerUseCase.
type issuerUseCase struct {
	txManager database.TxManager
	repo      IssuerRepository
	secrets   SecretStore
	client    AccountClient
	logger    *slog.Logger
}

// NewIssuerUseCase creates the issuer management use case.
func NewIssuerUseCase(
	txManager database.TxManager,
	repo IssuerRepository,
	secrets SecretStore,
	client AccountClient,
	logger *slog.Logger,
) IssuerUseCase {
	return &issuerUseCase{
		txManager: txManager,
		repo:      repo,
		secrets:   secrets,
		client:    client,
		logger:    logger,
	}
}

// Create provisions an account key in the vault and persists the issuer.
// When no issuer is selected yet, the new one becomes selected.
func (u *issuerUseCase) Create(ctx context.Context, input CreateIssuerInput) (*issuerDomain.IssuerConfig, error) {
	if !input.Environment.Valid() {
		return nil, issuerDomain.ErrInvalidEnvironment
	}
	if input.Label == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "label is required")
	}

	keyType, err := issuerAcme.KeyTypeFromAlgorithm(input.KeyAlgorithm)
	if err != nil {
		return nil, err
	}
	_, keyPEM, err := issuerAcme.GenerateKey(keyType)
	if err != nil {
		return nil, err
	}
	defer vaultDomain.Zero(keyPEM)

	keyRef, err := u.secrets.Create(ctx, vaultDomain.KindAcmeAccountKey, input.Label+" account key", keyPEM)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issuer := &issuerDomain.IssuerConfig{
		ID:            issuerDomain.NewIssuerID(),
		Label:         input.Label,
		DirectoryURL:  input.DirectoryURL,
		Environment:   input.Environment,
		ContactEmail:  input.ContactEmail,
		AccountKeyRef: keyRef.ID,
		TosAgreed:     input.TosAgreed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if _, selErr := u.repo.GetSelected(txCtx); errors.Is(selErr, issuerDomain.ErrNoIssuerSelected) {
			issuer.IsSelected = true
		} else if selErr != nil {
			return selErr
		}
		return u.repo.Create(txCtx, issuer)
	})
	if err != nil {
		// The issuer row never landed; don't leave the key orphaned.
		if cleanupErr := u.secrets.Delete(ctx, keyRef.ID); cleanupErr != nil {
			u.logger.Warn("failed to clean up orphaned account key", slog.String("error", cleanupErr.Error()))
		}
		return nil, err
	}

	u.logger.Info("issuer created",
		slog.String("issuer_id", issuer.ID),
		slog.String("environment", string(issuer.Environment)),
	)
	return issuer, nil
}

// Get returns one issuer.
func (u *issuerUseCase) Get(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	return u.repo.GetByID(ctx, id)
}

// GetSelected returns the issuer new issuance runs use.
func (u *issuerUseCase) GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error) {
	return u.repo.GetSelected(ctx)
}

// List returns issuers, newest first.
func (u *issuerUseCase) List(ctx context.Context, offset, limit int) ([]*issuerDomain.IssuerConfig, error) {
	return u.repo.List(ctx, offset, limit)
}

// Update applies configuration changes.
func (u *issuerUseCase) Update(ctx context.Context, id string, input UpdateIssuerInput) (*issuerDomain.IssuerConfig, error) {
	issuer, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Label != nil {
		issuer.Label = *input.Label
	}
	if input.DirectoryURL != nil {
		issuer.DirectoryURL = *input.DirectoryURL
	}
	if input.ContactEmail != nil {
		issuer.ContactEmail = *input.ContactEmail
	}
	if input.TosAgreed != nil {
		issuer.TosAgreed = *input.TosAgreed
	}
	if input.Disabled != nil {
		issuer.Disabled = *input.Disabled
	}
	issuer.UpdatedAt = time.Now().UTC()

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Update(txCtx, issuer)
	})
	if err != nil {
		return nil, err
	}
	return issuer, nil
}

// Select makes the issuer the one used for new issuance runs.
func (u *issuerUseCase) Select(ctx context.Context, id string) error {
	issuer, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if issuer.Disabled {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "cannot select a disabled issuer")
	}

	return u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Select(txCtx, id, time.Now().UTC())
	})
}

// Delete removes the issuer and its vaulted account key.
func (u *issuerUseCase) Delete(ctx context.Context, id string) error {
	issuer, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	if issuer.AccountKeyRef != "" {
		if err := u.secrets.Delete(ctx, issuer.AccountKeyRef); err != nil {
			u.logger.Warn("failed to delete issuer account key",
				slog.String("issuer_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	u.logger.Info("issuer deleted", slog.String("issuer_id", id))
	return nil
}

// EnsureAccount registers the issuer's account key with the CA. The call is
// idempotent; a key the CA already knows passes a liveness check instead.
func (u *issuerUseCase) EnsureAccount(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	issuer, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := issuer.Ready(); err != nil {
		return nil, err
	}

	key, err := u.AccountKey(ctx, issuer)
	if err != nil {
		return nil, err
	}

	if err := u.client.EnsureAccount(ctx, key, issuer.Directory(), issuer.ContactEmail); err != nil {
		return nil, err
	}

	u.logger.Info("acme account ensured",
		slog.String("issuer_id", issuer.ID),
		slog.String("directory", issuer.Directory()),
	)
	return issuer, nil
}

// AccountKey loads the issuer's account key from the vault.
func (u *issuerUseCase) AccountKey(ctx context.Context, issuer *issuerDomain.IssuerConfig) (crypto.Signer, error) {
	if issuer.AccountKeyRef == "" {
		return nil, issuerDomain.ErrAccountNotReady
	}

	keyPEM, err := u.secrets.Resolve(ctx, issuer.AccountKeyRef)
	if err != nil {
		return nil, err
	}
	defer vaultDomain.Zero(keyPEM)

	return issuerAcme.ParseKey(keyPEM)
}
