package acme

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"testing"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

func TestKeyTypeFromAlgorithm(t *testing.T) {
	tests := []struct {
		algorithm string
		expected  certcrypto.KeyType
	}{
		{"", certcrypto.EC256},
		{"P256", certcrypto.EC256},
		{"ec256", certcrypto.EC256},
		{"P384", certcrypto.EC384},
		{"ec384", certcrypto.EC384},
		{"RSA2048", certcrypto.RSA2048},
		{"rsa2048", certcrypto.RSA2048},
		{"RSA4096", certcrypto.RSA4096},
		{"rsa4096", certcrypto.RSA4096},
	}
	for _, tt := range tests {
		keyType, err := KeyTypeFromAlgorithm(tt.algorithm)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, keyType)
	}
}

func TestKeyTypeFromAlgorithmUnknown(t *testing.T) {
	_, err := KeyTypeFromAlgorithm("dsa1024")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGenerateKeyRoundTrip(t *testing.T) {
	key, pemBytes, err := GenerateKey(certcrypto.EC256)
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.IsType(t, &ecdsa.PrivateKey{}, key)

	parsed, err := ParseKey(pemBytes)
	require.NoError(t, err)
	assert.Equal(t, key.Public(), parsed.Public())
}

func TestGenerateKeyRSA(t *testing.T) {
	key, _, err := GenerateKey(certcrypto.RSA2048)
	require.NoError(t, err)
	assert.IsType(t, &rsa.PrivateKey{}, key)
}

func TestParseKeyGarbage(t *testing.T) {
	_, err := ParseKey([]byte("not a pem block"))
	assert.Error(t, err)
}

func TestCreateCSR(t *testing.T) {
	key, _, err := GenerateKey(certcrypto.EC256)
	require.NoError(t, err)

	csrDER, err := CreateCSR(key, []string{"example.com", "*.example.com"})
	require.NoError(t, err)

	csr, err := x509.ParseCertificateRequest(csrDER)
	require.NoError(t, err)
	assert.Equal(t, "example.com", csr.Subject.CommonName)
	assert.Equal(t, []string{"example.com", "*.example.com"}, csr.DNSNames)
	assert.NoError(t, csr.CheckSignature())
}
