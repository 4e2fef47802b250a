package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/certkeep/certkeep/internal/database"
)

// ZoneCacheRepository is the database-backed zone cache. Entries expire after
// a TTL; the adapter layer invalidates when a zone-level not_found shows the
// cache is stale.
type ZoneCacheRepository struct {
	db     *sql.DB
	driver string
	ttl    time.Duration
	logger *slog.Logger
}

// NewZoneCacheRepository creates a zone cache with the given TTL.
func NewZoneCacheRepository(db *sql.DB, driver string, ttl time.Duration, logger *slog.Logger) *ZoneCacheRepository {
	return &ZoneCacheRepository{db: db, driver: driver, ttl: ttl, logger: logger}
}

// Get returns the cached zone id when present and fresh.
func (r *ZoneCacheRepository) Get(ctx context.Context, providerID, zoneName string) (string, bool) {
	query := database.Rebind(r.driver, `SELECT zone_id, cached_at
		FROM dns_zone_cache
		WHERE provider_id = $1 AND zone_name = $2
		LIMIT 1`)

	var zoneID string
	var cachedAt time.Time
	err := r.db.QueryRowContext(ctx, query, providerID, zoneName).Scan(&zoneID, &cachedAt)
	if err != nil {
		return "", false
	}

	if time.Since(cachedAt) > r.ttl {
		return "", false
	}
	return zoneID, true
}

// Put stores a discovered zone id, replacing any previous entry.
func (r *ZoneCacheRepository) Put(ctx context.Context, providerID, zoneName, zoneID string) {
	deleteQuery := database.Rebind(r.driver, `DELETE FROM dns_zone_cache WHERE provider_id = $1 AND zone_name = $2`)
	if _, err := r.db.ExecContext(ctx, deleteQuery, providerID, zoneName); err != nil {
		r.logger.Warn("failed to clear zone cache entry", slog.String("error", err.Error()))
		return
	}

	insertQuery := database.Rebind(r.driver, `INSERT INTO dns_zone_cache (provider_id, zone_name, zone_id, cached_at)
		VALUES ($1, $2, $3, $4)`)
	if _, err := r.db.ExecContext(ctx, insertQuery, providerID, zoneName, zoneID, time.Now().UTC()); err != nil {
		r.logger.Warn("failed to store zone cache entry", slog.String("error", err.Error()))
	}
}

// Invalidate drops all cached zones for a provider.
func (r *ZoneCacheRepository) Invalidate(ctx context.Context, providerID string) {
	query := database.Rebind(r.driver, `DELETE FROM dns_zone_cache WHERE provider_id = $1`)
	if _, err := r.db.ExecContext(ctx, query, providerID); err != nil {
		r.logger.Warn("failed to invalidate zone cache", slog.String("error", err.Error()))
	}
}
