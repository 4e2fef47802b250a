// Package repository implements persistence for DNS provider configuration
// and the discovered-zone cache.
package repository

import (
	"context"
	"database/sql"

	"github.com/certkeep/certkeep/internal/database"
	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
	apperrors "github.com/certkeep/certkeep/internal/errors"
)

// ProviderRepository implements DNSProvider persistence for SQL databases.
type ProviderRepository struct {
	db     *sql.DB
	driver string
}

// NewProviderRepository creates a repository bound to the given driver.
func NewProviderRepository(db *sql.DB, driver string) *ProviderRepository {
	return &ProviderRepository{db: db, driver: driver}
}

// Create inserts a provider and its registered suffixes.
func (r *ProviderRepository) Create(ctx context.Context, provider *dnsDomain.DNSProvider) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `INSERT INTO dns_providers
		(id, kind, label, token_ref, access_key_ref, secret_key_ref, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		provider.ID,
		provider.Kind,
		provider.Label,
		provider.TokenRef,
		provider.AccessKeyRef,
		provider.SecretKeyRef,
		provider.Disabled,
		provider.CreatedAt,
		provider.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dns provider")
	}

	return r.insertSuffixes(ctx, provider.ID, provider.DomainSuffixes)
}

// GetByID retrieves a provider with its suffixes.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*dnsDomain.DNSProvider, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT id, kind, label, token_ref, access_key_ref, secret_key_ref, disabled, created_at, updated_at
		FROM dns_providers
		WHERE id = $1
		LIMIT 1`)

	var provider dnsDomain.DNSProvider
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&provider.ID,
		&provider.Kind,
		&provider.Label,
		&provider.TokenRef,
		&provider.AccessKeyRef,
		&provider.SecretKeyRef,
		&provider.Disabled,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dnsDomain.ErrProviderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get dns provider")
	}

	suffixes, err := r.loadSuffixes(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	provider.DomainSuffixes = suffixes

	return &provider, nil
}

// Update replaces provider fields and re-registers its suffixes.
func (r *ProviderRepository) Update(ctx context.Context, provider *dnsDomain.DNSProvider) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `UPDATE dns_providers
		SET label = $1, token_ref = $2, access_key_ref = $3, secret_key_ref = $4, disabled = $5, updated_at = $6
		WHERE id = $7`)

	result, err := querier.ExecContext(
		ctx,
		query,
		provider.Label,
		provider.TokenRef,
		provider.AccessKeyRef,
		provider.SecretKeyRef,
		provider.Disabled,
		provider.UpdatedAt,
		provider.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update dns provider")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return dnsDomain.ErrProviderNotFound
	}

	deleteQuery := database.Rebind(r.driver, `DELETE FROM dns_provider_suffixes WHERE provider_id = $1`)
	if _, err := querier.ExecContext(ctx, deleteQuery, provider.ID); err != nil {
		return apperrors.Wrap(err, "failed to clear provider suffixes")
	}

	return r.insertSuffixes(ctx, provider.ID, provider.DomainSuffixes)
}

// Delete removes a provider, its suffixes, and its cached zones.
func (r *ProviderRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	for _, query := range []string{
		`DELETE FROM dns_provider_suffixes WHERE provider_id = $1`,
		`DELETE FROM dns_zone_cache WHERE provider_id = $1`,
	} {
		if _, err := querier.ExecContext(ctx, database.Rebind(r.driver, query), id); err != nil {
			return apperrors.Wrap(err, "failed to delete provider children")
		}
	}

	result, err := querier.ExecContext(ctx, database.Rebind(r.driver, `DELETE FROM dns_providers WHERE id = $1`), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete dns provider")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return dnsDomain.ErrProviderNotFound
	}
	return nil
}

// List returns providers newest first, suffixes attached.
func (r *ProviderRepository) List(ctx context.Context, offset, limit int) ([]*dnsDomain.DNSProvider, error) {
	query := database.Rebind(r.driver, `SELECT id, kind, label, token_ref, access_key_ref, secret_key_ref, disabled, created_at, updated_at
		FROM dns_providers
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`)
	args := []any{offset, limit}
	if r.driver == "mysql" {
		query = database.Rebind(r.driver, `SELECT id, kind, label, token_ref, access_key_ref, secret_key_ref, disabled, created_at, updated_at
			FROM dns_providers
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`)
		args = []any{limit, offset}
	}

	return r.queryProviders(ctx, query, args...)
}

// ListEnabled returns every enabled provider, used by suffix resolution.
func (r *ProviderRepository) ListEnabled(ctx context.Context) ([]*dnsDomain.DNSProvider, error) {
	query := database.Rebind(r.driver, `SELECT id, kind, label, token_ref, access_key_ref, secret_key_ref, disabled, created_at, updated_at
		FROM dns_providers
		WHERE disabled = FALSE
		ORDER BY updated_at DESC`)

	return r.queryProviders(ctx, query)
}

func (r *ProviderRepository) queryProviders(ctx context.Context, query string, args ...any) ([]*dnsDomain.DNSProvider, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dns providers")
	}
	defer func() { _ = rows.Close() }()

	var providers []*dnsDomain.DNSProvider
	for rows.Next() {
		var provider dnsDomain.DNSProvider
		if err := rows.Scan(
			&provider.ID,
			&provider.Kind,
			&provider.Label,
			&provider.TokenRef,
			&provider.AccessKeyRef,
			&provider.SecretKeyRef,
			&provider.Disabled,
			&provider.CreatedAt,
			&provider.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dns provider")
		}
		providers = append(providers, &provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dns providers")
	}

	for _, provider := range providers {
		suffixes, err := r.loadSuffixes(ctx, provider.ID)
		if err != nil {
			return nil, err
		}
		provider.DomainSuffixes = suffixes
	}

	return providers, nil
}

func (r *ProviderRepository) insertSuffixes(ctx context.Context, providerID string, suffixes []string) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `INSERT INTO dns_provider_suffixes (provider_id, suffix) VALUES ($1, $2)`)
	for _, suffix := range suffixes {
		if _, err := querier.ExecContext(ctx, query, providerID, suffix); err != nil {
			return apperrors.Wrap(err, "failed to insert provider suffix")
		}
	}
	return nil
}

func (r *ProviderRepository) loadSuffixes(ctx context.Context, providerID string) ([]string, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT suffix FROM dns_provider_suffixes WHERE provider_id = $1 ORDER BY suffix`)

	rows, err := querier.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load provider suffixes")
	}
	defer func() { _ = rows.Close() }()

	var suffixes []string
	for rows.Next() {
		var suffix string
		if err := rows.Scan(&suffix); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan provider suffix")
		}
		suffixes = append(suffixes, suffix)
	}
	return suffixes, rows.Err()
}
