// Package usecase implements the certificate inventory: storage of issued
// chains, private key custody through the vault, and expiry reporting.
package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"log/slog"
	"strings"
	"time"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// certInventory implements CertInventory.
type certInventory struct {
	txManager database.TxManager
	repo      CertificateRepository
	secrets   SecretStore
	logger    *slog.Logger
}

// NewCertInventory creates the certificate inventory use case.
func NewCertInventory(
	txManager database.TxManager,
	repo CertificateRepository,
	secrets SecretStore,
	logger *slog.Logger,
) CertInventory {
	return &certInventory{
		txManager: txManager,
		repo:      repo,
		secrets:   secrets,
		logger:    logger,
	}
}

// StoreIssued records an issued certificate. The leaf is parsed for its
// metadata and fingerprinted; the private key goes straight into the vault.
func (u *certInventory) StoreIssued(ctx context.Context, requestID string, domains []string, chainDER [][]byte, keyPEM []byte) (string, error) {
	if len(chainDER) == 0 {
		return "", certinvDomain.ErrEmptyChain
	}

	leaf, err := x509.ParseCertificate(chainDER[0])
	if err != nil {
		return "", apperrors.Wrap(err, "failed to parse leaf certificate")
	}

	fingerprint := sha256.Sum256(chainDER[0])

	keyRef, err := u.secrets.Create(
		ctx,
		vaultDomain.KindManagedPrivateKey,
		strings.Join(domains, ",")+" key",
		keyPEM,
	)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := &certinvDomain.CertificateRecord{
		ID:                certinvDomain.NewCertificateID(),
		RequestID:         requestID,
		Source:            certinvDomain.SourceManaged,
		Domains:           domains,
		DomainRoots:       certinvDomain.DomainRoots(domains),
		SerialNumber:      leaf.SerialNumber.Text(16),
		FingerprintSHA256: hex.EncodeToString(fingerprint[:]),
		IssuerCN:          leaf.Issuer.CommonName,
		NotBefore:         leaf.NotBefore,
		NotAfter:          leaf.NotAfter,
		ChainPEM:          encodeChainPEM(chainDER),
		KeyRef:            keyRef.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Create(txCtx, record)
	})
	if err != nil {
		// The record never landed; don't leave the key orphaned.
		if cleanupErr := u.secrets.Delete(ctx, keyRef.ID); cleanupErr != nil {
			u.logger.Warn("failed to clean up orphaned certificate key", slog.String("error", cleanupErr.Error()))
		}
		return "", err
	}

	u.logger.Info("certificate stored",
		slog.String("certificate_id", record.ID),
		slog.String("serial", record.SerialNumber),
		slog.Time("not_after", record.NotAfter),
	)
	return record.ID, nil
}

// Import records an externally issued certificate chain. No private key
// enters the vault; the record carries metadata and the public chain only.
func (u *certInventory) Import(ctx context.Context, chainPEM []byte, tags []string) (*certinvDomain.CertificateRecord, error) {
	chainDER, err := decodeChainPEM(chainPEM)
	if err != nil {
		return nil, err
	}

	leaf, err := x509.ParseCertificate(chainDER[0])
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse leaf certificate")
	}

	domains := leaf.DNSNames
	if len(domains) == 0 && leaf.Subject.CommonName != "" {
		domains = []string{leaf.Subject.CommonName}
	}

	fingerprint := sha256.Sum256(chainDER[0])

	now := time.Now().UTC()
	record := &certinvDomain.CertificateRecord{
		ID:                certinvDomain.NewCertificateID(),
		Source:            certinvDomain.SourceExternal,
		Domains:           domains,
		DomainRoots:       certinvDomain.DomainRoots(domains),
		SerialNumber:      leaf.SerialNumber.Text(16),
		FingerprintSHA256: hex.EncodeToString(fingerprint[:]),
		IssuerCN:          leaf.Issuer.CommonName,
		NotBefore:         leaf.NotBefore,
		NotAfter:          leaf.NotAfter,
		ChainPEM:          encodeChainPEM(chainDER),
		Tags:              tags,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("certificate imported",
		slog.String("certificate_id", record.ID),
		slog.String("serial", record.SerialNumber),
	)
	return record, nil
}

// Get returns one certificate.
func (u *certInventory) Get(ctx context.Context, id string) (*certinvDomain.CertificateRecord, error) {
	return u.repo.GetByID(ctx, id)
}

// List returns certificates, newest first.
func (u *certInventory) List(ctx context.Context, offset, limit int) ([]*certinvDomain.CertificateRecord, error) {
	return u.repo.List(ctx, offset, limit)
}

// ListExpiring returns certificates expiring inside the window.
func (u *certInventory) ListExpiring(ctx context.Context, window time.Duration) ([]*certinvDomain.CertificateRecord, error) {
	return u.repo.ListExpiring(ctx, time.Now().UTC().Add(window))
}

// UpdateTags replaces the certificate's tags.
func (u *certInventory) UpdateTags(ctx context.Context, id string, tags []string) (*certinvDomain.CertificateRecord, error) {
	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.UpdateTags(txCtx, id, tags, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return u.repo.GetByID(ctx, id)
}

// Delete removes the certificate and its vaulted private key.
func (u *certInventory) Delete(ctx context.Context, id string) error {
	record, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.repo.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	if record.KeyRef != "" {
		if err := u.secrets.Delete(ctx, record.KeyRef); err != nil {
			u.logger.Warn("failed to delete certificate key",
				slog.String("certificate_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	u.logger.Info("certificate deleted", slog.String("certificate_id", id))
	return nil
}

func encodeChainPEM(chainDER [][]byte) []byte {
	var out []byte
	for _, der := range chainDER {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})...)
	}
	return out
}

func decodeChainPEM(chainPEM []byte) ([][]byte, error) {
	var chainDER [][]byte
	rest := chainPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unexpected %q block in certificate chain", block.Type)
		}
		chainDER = append(chainDER, block.Bytes)
	}
	if len(chainDER) == 0 {
		return nil, certinvDomain.ErrEmptyChain
	}
	return chainDER, nil
}
