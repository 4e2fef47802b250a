// Package usecase implements the credential-custody business logic: envelope
// encryption of secret values, stable reference ids, and the vault
// lock/unlock lifecycle gating resolution.
package usecase

import (
	"context"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// SecretRepository defines persistence operations for secrets.
type SecretRepository interface {
	Create(ctx context.Context, secret *vaultDomain.Secret) error
	GetByID(ctx context.Context, id string) (*vaultDomain.Secret, error)
	Update(ctx context.Context, secret *vaultDomain.Secret) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error)
}

// SecretStore is the credential-custody contract. Resolve is core-internal:
// no transport handler may expose its return value.
type SecretStore interface {
	// Create stores a new credential and returns its reference metadata.
	Create(ctx context.Context, kind vaultDomain.SecretKind, label string, value []byte) (*vaultDomain.SecretRef, error)

	// Resolve returns the plaintext credential bytes for a reference id.
	// The first resolve in a session implicitly unlocks the vault; when a
	// presence gate is active the call blocks until the user confirms.
	Resolve(ctx context.Context, id string) ([]byte, error)

	// Update rotates the credential value in place, keeping the id stable.
	// An empty label keeps the existing label.
	Update(ctx context.Context, id string, value []byte, label string) (*vaultDomain.SecretRef, error)

	// Delete removes the credential and its ciphertext.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes a set of credentials, used for provider cascades.
	DeleteMany(ctx context.Context, ids []string) error

	// Get returns reference metadata for one id.
	Get(ctx context.Context, id string) (*vaultDomain.SecretRef, error)

	// List returns reference metadata, newest first.
	List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error)

	// Lock re-locks the vault immediately.
	Lock()

	// Locked reports the current lock state.
	Locked() bool

	// Close releases the secure-storage keeper and stops the idle timer.
	Close() error
}
