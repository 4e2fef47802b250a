package acme

import (
	"context"
	"crypto"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/acme"

	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

// userAgent identifies this client to ACME servers.
const userAgent = "certkeep"

// Challenge is one DNS-01 challenge for a domain in an order.
type Challenge struct {
	// Domain is the identifier being validated.
	Domain string `json:"domain"`
	// FQDN is the TXT record name ("_acme-challenge.<domain>").
	FQDN string `json:"fqdn"`
	// Value is the TXT record content derived from the challenge token.
	Value string `json:"value"`
	// ChallengeURL is the ACME challenge resource.
	ChallengeURL string `json:"challenge_url"`
	// AuthzURL is the authorization resource the challenge belongs to.
	AuthzURL string `json:"authz_url"`
}

// Order carries the ACME order state between the begin and finalize phases.
// It is persisted with the issuance request so a paused run can resume.
type Order struct {
	URI         string      `json:"uri"`
	FinalizeURL string      `json:"finalize_url"`
	Domains     []string    `json:"domains"`
	Challenges  []Challenge `json:"challenges"`
}

// Client performs the ACME wire exchange. One instance serves all issuers;
// the account key and directory are supplied per call.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an ACME client on a pooled HTTP client.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{httpClient: httpClient, logger: logger}
}

func (c *Client) wire(key crypto.Signer, directoryURL string) *acme.Client {
	return &acme.Client{
		Key:          key,
		DirectoryURL: directoryURL,
		HTTPClient:   c.httpClient,
		UserAgent:    userAgent,
	}
}

// EnsureAccount registers the account key with the CA, or verifies an
// existing registration. Idempotent: an already-registered key is a no-op
// beyond a liveness check.
func (c *Client) EnsureAccount(ctx context.Context, key crypto.Signer, directoryURL, email string) error {
	client := c.wire(key, directoryURL)

	account := &acme.Account{Contact: []string{"mailto:" + email}}
	_, err := client.Register(ctx, account, acme.AcceptTOS)
	if err == nil {
		c.logger.Info("acme account registered", slog.String("directory", directoryURL))
		return nil
	}
	if !errors.Is(err, acme.ErrAccountAlreadyExists) {
		return mapError(err, "account registration")
	}

	// Key already registered; confirm the account is still usable.
	if _, err := client.GetReg(ctx, ""); err != nil {
		return mapError(err, "account lookup")
	}
	return nil
}

// BeginOrder opens an order for the domain set and returns one DNS-01
// challenge per domain.
func (c *Client) BeginOrder(ctx context.Context, key crypto.Signer, directoryURL string, domains []string) (*Order, error) {
	client := c.wire(key, directoryURL)

	acmeOrder, err := client.AuthorizeOrder(ctx, acme.DomainIDs(domains...))
	if err != nil {
		return nil, mapError(err, "order creation")
	}

	order := &Order{
		URI:         acmeOrder.URI,
		FinalizeURL: acmeOrder.FinalizeURL,
		Domains:     domains,
	}

	for _, authzURL := range acmeOrder.AuthzURLs {
		authz, err := client.GetAuthorization(ctx, authzURL)
		if err != nil {
			return nil, mapError(err, "authorization fetch")
		}
		if authz.Status == acme.StatusValid {
			// Cached authorization from a previous order; nothing to prove.
			continue
		}

		challenge := pickDNS01(authz)
		if challenge == nil {
			return nil, issuerDomain.NewAcmeError(
				issuerDomain.AcmeValidationFailed,
				"server offered no dns-01 challenge for "+authz.Identifier.Value,
				nil,
			)
		}

		value, err := client.DNS01ChallengeRecord(challenge.Token)
		if err != nil {
			return nil, mapError(err, "challenge record computation")
		}

		order.Challenges = append(order.Challenges, Challenge{
			Domain:       authz.Identifier.Value,
			FQDN:         "_acme-challenge." + strings.TrimPrefix(authz.Identifier.Value, "*."),
			Value:        value,
			ChallengeURL: challenge.URI,
			AuthzURL:     authzURL,
		})
	}

	return order, nil
}

// Finalize tells the CA to validate the published records, submits the CSR,
// and downloads the issued chain. The CA's retry-after hints are honored
// while waiting. Returns the DER chain, leaf first.
func (c *Client) Finalize(ctx context.Context, key crypto.Signer, directoryURL string, order *Order, csr []byte) ([][]byte, error) {
	client := c.wire(key, directoryURL)

	for i := range order.Challenges {
		challenge := &order.Challenges[i]

		if _, err := client.Accept(ctx, &acme.Challenge{URI: challenge.ChallengeURL}); err != nil {
			return nil, mapError(err, "challenge acceptance")
		}
		if _, err := client.WaitAuthorization(ctx, challenge.AuthzURL); err != nil {
			return nil, mapError(err, "authorization for "+challenge.Domain)
		}
	}

	if _, err := client.WaitOrder(ctx, order.URI); err != nil {
		return nil, mapError(err, "order readiness")
	}

	chain, _, err := client.CreateOrderCert(ctx, order.FinalizeURL, csr, true)
	if err != nil {
		return nil, mapError(err, "certificate finalization")
	}
	return chain, nil
}

// pickDNS01 selects the dns-01 challenge from an authorization.
func pickDNS01(authz *acme.Authorization) *acme.Challenge {
	for _, challenge := range authz.Challenges {
		if challenge.Type == "dns-01" {
			return challenge
		}
	}
	return nil
}

// mapError translates wire failures into the issuer taxonomy, preserving the
// CA's problem-document detail.
func mapError(err error, operation string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var acmeErr *acme.Error
	if errors.As(err, &acmeErr) {
		category := issuerDomain.AcmeValidationFailed
		switch {
		case acmeErr.StatusCode == http.StatusTooManyRequests,
			strings.HasSuffix(acmeErr.ProblemType, ":rateLimited"):
			category = issuerDomain.AcmeRateLimited
		case strings.HasSuffix(acmeErr.ProblemType, ":accountDoesNotExist"),
			strings.HasSuffix(acmeErr.ProblemType, ":unauthorized"):
			category = issuerDomain.AcmeAccountNotReady
		}
		return issuerDomain.NewAcmeError(category, acmeErr.Detail, err)
	}

	var authzErr *acme.AuthorizationError
	if errors.As(err, &authzErr) {
		detail := "challenge validation failed"
		for _, sub := range authzErr.Errors {
			var subErr *acme.Error
			if errors.As(sub, &subErr) && subErr.Detail != "" {
				detail = subErr.Detail
				break
			}
		}
		return issuerDomain.NewAcmeError(issuerDomain.AcmeChallengeRejected, detail, err)
	}

	var orderErr *acme.OrderError
	if errors.As(err, &orderErr) {
		return issuerDomain.NewAcmeError(
			issuerDomain.AcmeValidationFailed,
			"order became "+orderErr.Status,
			err,
		)
	}

	return issuerDomain.NewAcmeError(issuerDomain.AcmeNetworkError, operation+" failed", err)
}
