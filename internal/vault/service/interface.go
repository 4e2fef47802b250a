// Package service provides the cryptographic backends for credential custody:
// the key-wrapping keeper standing in front of the platform secure store, the
// AEAD ciphers used for envelope encryption, and the optional user-presence
// gate selected by a capability probe.
package service

import "context"

// KeyWrapper wraps and unwraps per-secret data keys. Implementations sit in
// front of the platform secure store (KMS, OS keychain service, local keeper).
type KeyWrapper interface {
	// Wrap encrypts a plaintext data key.
	Wrap(ctx context.Context, dataKey []byte) ([]byte, error)

	// Unwrap decrypts a wrapped data key.
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)

	// Close releases resources held by the wrapper.
	Close() error
}

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// PresenceProvider confirms user presence (biometric or equivalent) before a
// secret resolve. Available reports whether the platform offers such a check.
type PresenceProvider interface {
	// Available reports whether a presence check can be performed.
	Available() bool

	// Confirm blocks until the user confirms presence or the context is done.
	// A nil return means presence was confirmed.
	Confirm(ctx context.Context, reason string) error
}
