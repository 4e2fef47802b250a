// Package domain defines the core domain models for credential custody.
// Secret values are envelope encrypted: each secret gets its own data key,
// wrapped by the configured key-management keeper. Only the reference metadata
// ever leaves the core; plaintext is resolvable by id and zeroed after use.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SecretKind classifies what a stored credential is used for.
type SecretKind string

// Supported secret kinds.
const (
	KindAcmeAccountKey       SecretKind = "acme_account_key"
	KindManagedPrivateKey    SecretKind = "managed_private_key"
	KindDNSProviderToken     SecretKind = "dns_provider_token"
	KindDNSProviderAccessKey SecretKind = "dns_provider_access_key"
	KindDNSProviderSecretKey SecretKind = "dns_provider_secret_key"
)

// Valid reports whether the kind is one of the supported secret kinds.
func (k SecretKind) Valid() bool {
	switch k {
	case KindAcmeAccountKey, KindManagedPrivateKey, KindDNSProviderToken,
		KindDNSProviderAccessKey, KindDNSProviderSecretKey:
		return true
	}
	return false
}

// SecretRef is the only representation of a credential visible outside the
// core. The id is stable across value rotations.
type SecretRef struct {
	// ID is the opaque, prefixed reference id (e.g. "sec_4f1a...").
	ID string
	// Kind classifies the credential.
	Kind SecretKind
	// Label is a human-readable name chosen by the user.
	Label string
	// CreatedAt is the UTC timestamp when the reference was first created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last value rotation.
	UpdatedAt time.Time
}

// Secret is the full stored record, including ciphertext. It never crosses
// the UI boundary.
type Secret struct {
	SecretRef
	// EncryptedDataKey is the per-secret data key wrapped by the keeper.
	EncryptedDataKey []byte
	// Ciphertext contains the encrypted credential bytes.
	Ciphertext []byte
	// Nonce is the random value used during AEAD encryption.
	Nonce []byte
	// Plaintext holds the decrypted value in memory only; must be zeroed after use.
	Plaintext []byte `json:"-"`
}

// refIDPrefix prefixes every secret reference id.
const refIDPrefix = "sec_"

// NewRefID generates a new opaque secret reference id.
func NewRefID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is not recoverable
		panic(fmt.Sprintf("vault: cannot read random bytes: %v", err))
	}
	return refIDPrefix + hex.EncodeToString(b[:])
}
