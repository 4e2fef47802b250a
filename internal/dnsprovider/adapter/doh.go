package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// dnsTypeTXT is the DNS record type code for TXT.
const dnsTypeTXT = 16

// DNS response codes relevant to classification.
const (
	rcodeNoError  = 0
	rcodeNXDomain = 3
)

// DoHResolver performs TXT lookups over DNS-over-HTTPS using the JSON API
// shape served at endpoints like https://cloudflare-dns.com/dns-query.
// Querying an external resolver avoids local resolver cache skew when
// checking challenge record propagation.
type DoHResolver struct {
	endpoint string
	client   *http.Client
}

// NewDoHResolver creates a resolver against the given dns-query endpoint.
// The HTTP client is shared and pooled by the caller.
func NewDoHResolver(endpoint string, client *http.Client) *DoHResolver {
	return &DoHResolver{endpoint: endpoint, client: client}
}

// dohAnswer is one answer entry in a DNS JSON response.
type dohAnswer struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	Data string `json:"data"`
}

// dohResponse is the DNS JSON response envelope.
type dohResponse struct {
	Status int         `json:"Status"`
	Answer []dohAnswer `json:"Answer"`
}

// LookupTXT returns all TXT values published at the name. A nil slice with a
// nil error means the name does not exist.
func (r *DoHResolver) LookupTXT(ctx context.Context, fqdn string) ([]string, error) {
	query := url.Values{}
	query.Set("name", fqdn)
	query.Set("type", "TXT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}

	var body dohResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode resolver response: %w", err)
	}

	switch body.Status {
	case rcodeNoError:
	case rcodeNXDomain:
		return nil, nil
	default:
		return nil, fmt.Errorf("resolver returned rcode %d", body.Status)
	}

	var values []string
	for _, answer := range body.Answer {
		if answer.Type != dnsTypeTXT {
			continue
		}
		values = append(values, unquoteTXT(answer.Data))
	}
	return values, nil
}

// unquoteTXT strips the quoted-string form resolvers use for TXT data.
// Multi-string records come back as adjacent quoted chunks and are joined.
func unquoteTXT(data string) string {
	if !strings.Contains(data, `"`) {
		return data
	}

	var b strings.Builder
	inQuotes := false
	for _, r := range data {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// classifyLookup turns a lookup result into a challenge record state. Every
// observed TXT value is checked since unrelated records may co-exist at the
// same name.
func classifyLookup(values []string, want string, lookupErr error) dnsDomain.RecordState {
	if lookupErr != nil {
		return dnsDomain.StateError
	}
	if len(values) == 0 {
		return dnsDomain.StateNXDomain
	}
	for _, value := range values {
		if value == want {
			return dnsDomain.StateFound
		}
	}
	return dnsDomain.StateWrongContent
}
