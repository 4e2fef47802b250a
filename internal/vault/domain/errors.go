// Package domain defines core domain models and errors for credential custody.
package domain

import (
	"github.com/certkeep/certkeep/internal/errors"
)

// Secret-custody error definitions.
var (
	// ErrSecretNotFound indicates no secret exists for the given reference id.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrInvalidKind indicates an unsupported secret kind was supplied.
	ErrInvalidKind = errors.Wrap(errors.ErrInvalidInput, "invalid secret kind")

	// ErrBackendUnavailable indicates the secure-storage keeper cannot be
	// reached. Resolution fails closed: there is no plaintext fallback.
	ErrBackendUnavailable = errors.Wrap(errors.ErrUnavailable, "secure storage backend unavailable")

	// ErrAuthDenied indicates the user declined (or failed) the presence check
	// required before a secret resolve.
	ErrAuthDenied = errors.Wrap(errors.ErrForbidden, "user presence check denied")

	// ErrDecryptionFailed indicates the stored ciphertext could not be
	// decrypted. The cause is deliberately not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
