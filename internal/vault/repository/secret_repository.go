// Package repository implements persistence for secret reference metadata and
// ciphertext. Queries are written in postgres placeholder style and rebound
// for the configured driver at construction time.
package repository

import (
	"context"
	"database/sql"

	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	vaultDomain "github.com/certkeep/certkeep/internal/vault/domain"
)

// SecretRepository implements Secret persistence for SQL databases.
type SecretRepository struct {
	db     *sql.DB
	driver string
}

// NewSecretRepository creates a repository bound to the given driver.
func NewSecretRepository(db *sql.DB, driver string) *SecretRepository {
	return &SecretRepository{db: db, driver: driver}
}

// Create inserts a new secret.
func (r *SecretRepository) Create(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `INSERT INTO secrets
		(id, kind, label, encrypted_data_key, ciphertext, nonce, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.Kind,
		secret.Label,
		secret.EncryptedDataKey,
		secret.Ciphertext,
		secret.Nonce,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create secret")
	}
	return nil
}

// GetByID retrieves a secret (metadata and ciphertext) by its reference id.
func (r *SecretRepository) GetByID(ctx context.Context, id string) (*vaultDomain.Secret, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT id, kind, label, encrypted_data_key, ciphertext, nonce, created_at, updated_at
		FROM secrets
		WHERE id = $1
		LIMIT 1`)

	var secret vaultDomain.Secret
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&secret.ID,
		&secret.Kind,
		&secret.Label,
		&secret.EncryptedDataKey,
		&secret.Ciphertext,
		&secret.Nonce,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, vaultDomain.ErrSecretNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret by id")
	}

	return &secret, nil
}

// Update replaces the ciphertext (and optionally the label) for an existing
// reference id. The id stays stable across rotations.
func (r *SecretRepository) Update(ctx context.Context, secret *vaultDomain.Secret) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `UPDATE secrets
		SET label = $1, encrypted_data_key = $2, ciphertext = $3, nonce = $4, updated_at = $5
		WHERE id = $6`)

	result, err := querier.ExecContext(
		ctx,
		query,
		secret.Label,
		secret.EncryptedDataKey,
		secret.Ciphertext,
		secret.Nonce,
		secret.UpdatedAt,
		secret.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return vaultDomain.ErrSecretNotFound
	}
	return nil
}

// Delete removes a secret permanently.
func (r *SecretRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `DELETE FROM secrets WHERE id = $1`)

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return vaultDomain.ErrSecretNotFound
	}
	return nil
}

// List returns secret reference metadata only, newest first. Ciphertext
// columns are never selected here.
func (r *SecretRepository) List(ctx context.Context, offset, limit int) ([]*vaultDomain.SecretRef, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT id, kind, label, created_at, updated_at
		FROM secrets
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`)
	args := []any{offset, limit}
	if r.driver == "mysql" {
		query = database.Rebind(r.driver, `SELECT id, kind, label, created_at, updated_at
			FROM secrets
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`)
		args = []any{limit, offset}
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer func() { _ = rows.Close() }()

	var refs []*vaultDomain.SecretRef
	for rows.Next() {
		var ref vaultDomain.SecretRef
		if err := rows.Scan(&ref.ID, &ref.Kind, &ref.Label, &ref.CreatedAt, &ref.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan secret ref")
		}
		refs = append(refs, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate secret refs")
	}

	return refs, nil
}

// DeleteByIDs removes a set of secrets in one statement, used when a provider
// deletion cascades to its credentials.
func (r *SecretRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	querier := database.GetTx(ctx, r.db)

	for _, id := range ids {
		query := database.Rebind(r.driver, `DELETE FROM secrets WHERE id = $1`)
		if _, err := querier.ExecContext(ctx, query, id); err != nil {
			return apperrors.Wrap(err, "failed to delete secret")
		}
	}
	return nil
}
