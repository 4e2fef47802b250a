package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// digitaloceanAdapter drives a DigitalOcean-style v2 API: token auth, domain
// listing for zone discovery, and record CRUD scoped by zone name.
type digitaloceanAdapter struct {
	providerID string
	tokenRef   string
	baseURL    string
	client     *http.Client
	creds      CredentialResolver
	cache      ZoneCache
	resolver   *DoHResolver
}

// NewDigitalOcean creates a token/zone-discovery-class adapter. baseURL
// points at the API root ("https://api.digitalocean.com").
func NewDigitalOcean(
	providerID, tokenRef, baseURL string,
	client *http.Client,
	creds CredentialResolver,
	cache ZoneCache,
	resolver *DoHResolver,
) Adapter {
	return &digitaloceanAdapter{
		providerID: providerID,
		tokenRef:   tokenRef,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     client,
		creds:      creds,
		cache:      cache,
		resolver:   resolver,
	}
}

func (a *digitaloceanAdapter) Kind() dnsDomain.ProviderKind {
	return dnsDomain.KindDigitalOcean
}

// doDomain is one managed domain in list responses.
type doDomain struct {
	Name string `json:"name"`
}

// doRecord is a DNS record entry.
type doRecord struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
}

func (a *digitaloceanAdapter) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}

	token, err := resolveString(ctx, a.creds, a.tokenRef)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return mapTransportError(a.Kind(), method+" "+path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPStatus(a.Kind(), resp.StatusCode, method+" "+path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dnsDomain.NewAdapterError(a.Kind(), dnsDomain.CategoryUnknown, "failed to decode response", err)
	}
	return nil
}

// findZone discovers the managed domain covering fqdn. The zone name doubles
// as the zone id in this API.
func (a *digitaloceanAdapter) findZone(ctx context.Context, fqdn string) (string, error) {
	for _, candidate := range candidateZones(fqdn) {
		if zone, ok := a.cache.Get(ctx, a.providerID, candidate); ok {
			return zone, nil
		}
	}

	var response struct {
		Domains []doDomain `json:"domains"`
	}
	if err := a.do(ctx, http.MethodGet, "/v2/domains?per_page=200", nil, &response); err != nil {
		return "", err
	}

	names := make([]string, 0, len(response.Domains))
	for _, d := range response.Domains {
		names = append(names, d.Name)
	}

	zone := pickZone(fqdn, names)
	if zone == "" {
		return "", dnsDomain.NewAdapterError(
			a.Kind(),
			dnsDomain.CategoryNotFound,
			fmt.Sprintf("no zone found for %s", fqdn),
			nil,
		)
	}

	a.cache.Put(ctx, a.providerID, zone, zone)
	return zone, nil
}

func (a *digitaloceanAdapter) findRecords(ctx context.Context, zone, fqdn string) ([]doRecord, error) {
	path := fmt.Sprintf("/v2/domains/%s/records?type=TXT&name=%s", zone, url.QueryEscape(strings.TrimSuffix(fqdn, ".")))

	var response struct {
		DomainRecords []doRecord `json:"domain_records"`
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.DomainRecords, nil
}

// doRecordBody is the create/update payload. Record names are zone-relative.
type doRecordBody struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int    `json:"ttl"`
}

// PresentTXT upserts the challenge record by zone-relative name.
func (a *digitaloceanAdapter) PresentTXT(ctx context.Context, fqdn, value string) error {
	zone, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	records, err := a.findRecords(ctx, zone, fqdn)
	if err != nil {
		a.invalidateOnZoneMiss(ctx, err)
		return err
	}

	body := doRecordBody{Type: "TXT", Name: relativeName(fqdn, zone), Data: value, TTL: 60}

	if len(records) > 0 {
		path := fmt.Sprintf("/v2/domains/%s/records/%d", zone, records[0].ID)
		return a.do(ctx, http.MethodPut, path, body, nil)
	}

	return a.do(ctx, http.MethodPost, fmt.Sprintf("/v2/domains/%s/records", zone), body, nil)
}

// CleanupTXT deletes only the record carrying the value this run published.
func (a *digitaloceanAdapter) CleanupTXT(ctx context.Context, fqdn, value string) error {
	zone, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	records, err := a.findRecords(ctx, zone, fqdn)
	if err != nil {
		a.invalidateOnZoneMiss(ctx, err)
		return err
	}

	for _, record := range records {
		if record.Data != value {
			continue
		}
		path := fmt.Sprintf("/v2/domains/%s/records/%d", zone, record.ID)
		if err := a.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (a *digitaloceanAdapter) VerifyPropagation(ctx context.Context, fqdn, value string) (dnsDomain.RecordState, error) {
	values, err := a.resolver.LookupTXT(ctx, fqdn)
	return classifyLookup(values, value, err), nil
}

// ValidateCredentials lists domains, a read-only call.
func (a *digitaloceanAdapter) ValidateCredentials(ctx context.Context) error {
	var response struct {
		Domains []doDomain `json:"domains"`
	}
	return a.do(ctx, http.MethodGet, "/v2/domains?per_page=1", nil, &response)
}

func (a *digitaloceanAdapter) invalidateOnZoneMiss(ctx context.Context, err error) {
	if dnsDomain.Categorize(err) == dnsDomain.CategoryNotFound {
		a.cache.Invalidate(ctx, a.providerID)
	}
}
