// Package domain defines ACME issuer configuration and the issuer error
// taxonomy.
package domain

import (
	"time"

	"github.com/go-acme/lego/v4/lego"
	"github.com/google/uuid"
)

// Environment selects the ACME endpoint class.
type Environment string

// Supported environments.
const (
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// Valid reports whether the environment is supported.
func (e Environment) Valid() bool {
	return e == EnvironmentStaging || e == EnvironmentProduction
}

// DefaultDirectoryURL returns the Let's Encrypt directory for the
// environment, used when no explicit directory is configured.
func (e Environment) DefaultDirectoryURL() string {
	if e == EnvironmentProduction {
		return lego.LEDirectoryProduction
	}
	return lego.LEDirectoryStaging
}

// IssuerConfig is a configured ACME issuer. The account key lives in the
// vault; only its reference is stored here.
type IssuerConfig struct {
	ID            string      `json:"id"`
	Label         string      `json:"label"`
	DirectoryURL  string      `json:"directory_url"`
	Environment   Environment `json:"environment"`
	ContactEmail  string      `json:"contact_email"`
	AccountKeyRef string      `json:"account_key_ref,omitempty"`
	TosAgreed     bool        `json:"tos_agreed"`
	IsSelected    bool        `json:"is_selected"`
	Disabled      bool        `json:"disabled"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewIssuerID generates an issuer id.
func NewIssuerID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Ready reports whether account actions may proceed: registration is blocked
// until a contact email is set and the terms of service are agreed.
func (c *IssuerConfig) Ready() error {
	if c.ContactEmail == "" || !c.TosAgreed {
		return ErrAccountNotReady
	}
	return nil
}

// Directory returns the effective ACME directory URL.
func (c *IssuerConfig) Directory() string {
	if c.DirectoryURL != "" {
		return c.DirectoryURL
	}
	return c.Environment.DefaultDirectoryURL()
}
