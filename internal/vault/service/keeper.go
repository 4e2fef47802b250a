package service

import (
	"context"

	"gocloud.dev/secrets"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"

	// Register all secure-storage keeper drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// keeperWrapper implements KeyWrapper on top of a gocloud.dev secrets keeper.
type keeperWrapper struct {
	keeper *secrets.Keeper
}

// OpenKeyWrapper opens the keeper behind the given URI.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
// Returns ErrBackendUnavailable when the keeper cannot be opened: the vault
// fails closed rather than falling back to plaintext storage.
func OpenKeyWrapper(ctx context.Context, keyURI string) (KeyWrapper, error) {
	if keyURI == "" {
		return nil, vaultDomain.ErrBackendUnavailable
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, vaultDomain.ErrBackendUnavailable
	}

	return &keeperWrapper{keeper: keeper}, nil
}

// Wrap encrypts a plaintext data key with the keeper.
func (k *keeperWrapper) Wrap(ctx context.Context, dataKey []byte) ([]byte, error) {
	wrapped, err := k.keeper.Encrypt(ctx, dataKey)
	if err != nil {
		return nil, vaultDomain.ErrBackendUnavailable
	}
	return wrapped, nil
}

// Unwrap decrypts a wrapped data key with the keeper.
func (k *keeperWrapper) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	dataKey, err := k.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, vaultDomain.ErrBackendUnavailable
	}
	return dataKey, nil
}

// Close releases the underlying keeper.
func (k *keeperWrapper) Close() error {
	return k.keeper.Close()
}
