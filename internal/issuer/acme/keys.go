// Package acme drives the RFC 8555 account/order/challenge/finalize exchange
// and the key material handling around it.
package acme

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"

	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// KeyTypeFromAlgorithm maps a key policy name to a concrete key type.
// An empty algorithm defaults to EC P-256.
func KeyTypeFromAlgorithm(algorithm string) (certcrypto.KeyType, error) {
	switch algorithm {
	case "", "P256", "ec256":
		return certcrypto.EC256, nil
	case "P384", "ec384":
		return certcrypto.EC384, nil
	case "RSA2048", "rsa2048":
		return certcrypto.RSA2048, nil
	case "RSA4096", "rsa4096":
		return certcrypto.RSA4096, nil
	default:
		return "", apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported key algorithm %q", algorithm)
	}
}

// GenerateKey creates a private key and its PEM encoding.
func GenerateKey(keyType certcrypto.KeyType) (crypto.Signer, []byte, error) {
	key, err := certcrypto.GeneratePrivateKey(keyType)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, nil, fmt.Errorf("generated %s key does not implement crypto.Signer", keyType)
	}
	return signer, certcrypto.PEMEncode(key), nil
}

// ParseKey decodes a PEM private key back into a signer.
func ParseKey(pemBytes []byte) (crypto.Signer, error) {
	key, err := certcrypto.ParsePEMPrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("private key does not implement crypto.Signer")
	}
	return signer, nil
}

// CreateCSR builds a DER certificate signing request for the domain set. The
// first domain becomes the common name; all domains are SANs.
func CreateCSR(key crypto.Signer, domains []string) ([]byte, error) {
	if len(domains) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "at least one domain is required")
	}

	template := &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: domains[0]},
		DNSNames: domains,
	}

	csr, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate request: %w", err)
	}
	return csr, nil
}
