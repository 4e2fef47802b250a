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

// cloudflareAdapter drives a Cloudflare-style REST v4 API: bearer token,
// zone listing, and record CRUD with upsert-by-name semantics.
type cloudflareAdapter struct {
	providerID string
	tokenRef   string
	baseURL    string
	client     *http.Client
	creds      CredentialResolver
	cache      ZoneCache
	resolver   *DoHResolver
}

// NewCloudflare creates a Cloudflare-class adapter. baseURL points at the
// API root ("https://api.cloudflare.com/client/v4").
func NewCloudflare(
	providerID, tokenRef, baseURL string,
	client *http.Client,
	creds CredentialResolver,
	cache ZoneCache,
	resolver *DoHResolver,
) Adapter {
	return &cloudflareAdapter{
		providerID: providerID,
		tokenRef:   tokenRef,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     client,
		creds:      creds,
		cache:      cache,
		resolver:   resolver,
	}
}

func (a *cloudflareAdapter) Kind() dnsDomain.ProviderKind {
	return dnsDomain.KindCloudflare
}

// cfZone is a zone entry in list responses.
type cfZone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// cfRecord is a DNS record entry.
type cfRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// cfEnvelope is the response wrapper shared by all endpoints.
type cfEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

func (a *cloudflareAdapter) do(ctx context.Context, method, path string, body, out any) error {
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

	var envelope cfEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return dnsDomain.NewAdapterError(a.Kind(), dnsDomain.CategoryUnknown, "failed to decode response", err)
	}
	if !envelope.Success {
		return dnsDomain.NewAdapterError(a.Kind(), dnsDomain.CategoryUnknown, "api reported failure", nil)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return dnsDomain.NewAdapterError(a.Kind(), dnsDomain.CategoryUnknown, "failed to decode result", err)
	}
	return nil
}

// findZone discovers the zone id managing fqdn, preferring the cache.
func (a *cloudflareAdapter) findZone(ctx context.Context, fqdn string) (id, name string, err error) {
	for _, candidate := range candidateZones(fqdn) {
		if zoneID, ok := a.cache.Get(ctx, a.providerID, candidate); ok {
			return zoneID, candidate, nil
		}
	}

	var zones []cfZone
	if err := a.do(ctx, http.MethodGet, "/zones?per_page=50", nil, &zones); err != nil {
		return "", "", err
	}

	names := make([]string, 0, len(zones))
	byName := make(map[string]string, len(zones))
	for _, zone := range zones {
		names = append(names, zone.Name)
		byName[zone.Name] = zone.ID
	}

	zoneName := pickZone(fqdn, names)
	if zoneName == "" {
		return "", "", dnsDomain.NewAdapterError(
			a.Kind(),
			dnsDomain.CategoryNotFound,
			fmt.Sprintf("no zone found for %s", fqdn),
			nil,
		)
	}

	a.cache.Put(ctx, a.providerID, zoneName, byName[zoneName])
	return byName[zoneName], zoneName, nil
}

// findRecord looks up existing TXT records at the name.
func (a *cloudflareAdapter) findRecords(ctx context.Context, zoneID, fqdn string) ([]cfRecord, error) {
	path := fmt.Sprintf("/zones/%s/dns_records?type=TXT&name=%s", zoneID, url.QueryEscape(fqdn))

	var records []cfRecord
	if err := a.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// cfRecordBody is the create/update payload.
type cfRecordBody struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
}

// PresentTXT upserts the challenge record: an existing record at the name is
// updated in place rather than duplicated.
func (a *cloudflareAdapter) PresentTXT(ctx context.Context, fqdn, value string) error {
	zoneID, _, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	records, err := a.findRecords(ctx, zoneID, fqdn)
	if err != nil {
		a.invalidateOnZoneMiss(ctx, err)
		return err
	}

	body := cfRecordBody{Type: "TXT", Name: fqdn, Content: value, TTL: 60}

	if len(records) > 0 {
		path := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, records[0].ID)
		return a.do(ctx, http.MethodPut, path, body, nil)
	}

	path := fmt.Sprintf("/zones/%s/dns_records", zoneID)
	return a.do(ctx, http.MethodPost, path, body, nil)
}

// CleanupTXT deletes only the record carrying the value this run published.
func (a *cloudflareAdapter) CleanupTXT(ctx context.Context, fqdn, value string) error {
	zoneID, _, err := a.findZone(ctx, fqdn)
	if err != nil {
		return err
	}

	records, err := a.findRecords(ctx, zoneID, fqdn)
	if err != nil {
		a.invalidateOnZoneMiss(ctx, err)
		return err
	}

	for _, record := range records {
		if record.Content != value {
			continue
		}
		path := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, record.ID)
		if err := a.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (a *cloudflareAdapter) VerifyPropagation(ctx context.Context, fqdn, value string) (dnsDomain.RecordState, error) {
	values, err := a.resolver.LookupTXT(ctx, fqdn)
	return classifyLookup(values, value, err), nil
}

// ValidateCredentials lists zones, the lowest-privilege read the API offers.
func (a *cloudflareAdapter) ValidateCredentials(ctx context.Context) error {
	var zones []cfZone
	return a.do(ctx, http.MethodGet, "/zones?per_page=1", nil, &zones)
}

// invalidateOnZoneMiss drops cached zones when a record call reports the zone
// gone, so the next run re-discovers.
func (a *cloudflareAdapter) invalidateOnZoneMiss(ctx context.Context, err error) {
	if dnsDomain.Categorize(err) == dnsDomain.CategoryNotFound {
		a.cache.Invalidate(ctx, a.providerID)
	}
}
