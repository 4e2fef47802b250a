package adapter

import "context"

// ZoneCache stores discovered zone ids so adapters can skip the provider's
// zone-listing call on repeat runs. Whether discovery results are cached at
// all is configuration; the cache degrades to a no-op when disabled.
type ZoneCache interface {
	// Get returns the cached zone id for a zone name, when present and fresh.
	Get(ctx context.Context, providerID, zoneName string) (string, bool)

	// Put stores a discovered zone id.
	Put(ctx context.Context, providerID, zoneName, zoneID string)

	// Invalidate drops all cached zones for a provider. Adapters call this
	// when a record operation reports the zone missing, so stale ids never
	// outlive a zone change.
	Invalidate(ctx context.Context, providerID string)
}

// NoopZoneCache disables caching: every run re-discovers zones from the
// provider API.
type NoopZoneCache struct{}

func (NoopZoneCache) Get(context.Context, string, string) (string, bool) { return "", false }

func (NoopZoneCache) Put(context.Context, string, string, string) {}

func (NoopZoneCache) Invalidate(context.Context, string) {}
