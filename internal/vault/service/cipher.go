package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// dataKeySize is the size of per-secret data keys (256 bits).
const dataKeySize = 32

// NewDataKey generates a fresh random data key.
func NewDataKey() ([]byte, error) {
	key := make([]byte, dataKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	return key, nil
}

// aeadCipher implements AEAD on top of a cipher.AEAD with random nonces.
type aeadCipher struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305 creates an AEAD using ChaCha20-Poly1305.
// The key must be exactly 32 bytes.
func NewChaCha20Poly1305(key []byte) (AEAD, error) {
	if len(key) != dataKeySize {
		return nil, vaultDomain.ErrDecryptionFailed
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &aeadCipher{aead: aead}, nil
}

// NewAESGCM creates an AEAD using AES-256-GCM.
// The key must be exactly 32 bytes.
func NewAESGCM(key []byte) (AEAD, error) {
	if len(key) != dataKeySize {
		return nil, vaultDomain.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	return &aeadCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext with a freshly generated random nonce.
// The nonce must be stored alongside the ciphertext for later decryption.
func (c *aeadCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext = c.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using the provided nonce and AAD. The
// authentication tag is verified before any plaintext is returned.
func (c *aeadCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, vaultDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
