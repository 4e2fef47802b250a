// Package repository implements persistence for ACME issuer configuration.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	issuerDomain "github.com/certkeep/certkeep/internal/issuer/domain"
)

const issuerColumns = `id, label, directory_url, environment, contact_email, account_key_ref, tos_agreed, is_selected, disabled, created_at, updated_at`

// IssuerRepository implements IssuerConfig persistence for SQL databases.
type IssuerRepository struct {
	db     *sql.DB
	driver string
}

// NewIssuerRepository creates a repository bound to the given driver.
func NewIssuerRepository(db *sql.DB, driver string) *IssuerRepository {
	return &IssuerRepository{db: db, driver: driver}
}

// Create inserts an issuer configuration.
func (r *IssuerRepository) Create(ctx context.Context, issuer *issuerDomain.IssuerConfig) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `INSERT INTO issuers
		(`+issuerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		issuer.ID,
		issuer.Label,
		issuer.DirectoryURL,
		issuer.Environment,
		issuer.ContactEmail,
		issuer.AccountKeyRef,
		issuer.TosAgreed,
		issuer.IsSelected,
		issuer.Disabled,
		issuer.CreatedAt,
		issuer.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create issuer")
	}
	return nil
}

// GetByID retrieves an issuer configuration.
func (r *IssuerRepository) GetByID(ctx context.Context, id string) (*issuerDomain.IssuerConfig, error) {
	query := database.Rebind(r.driver, `SELECT `+issuerColumns+`
		FROM issuers
		WHERE id = $1
		LIMIT 1`)

	return r.queryIssuer(ctx, query, id)
}

// GetSelected returns the issuer marked as selected for issuance.
func (r *IssuerRepository) GetSelected(ctx context.Context) (*issuerDomain.IssuerConfig, error) {
	query := database.Rebind(r.driver, `SELECT `+issuerColumns+`
		FROM issuers
		WHERE is_selected = TRUE AND disabled = FALSE
		LIMIT 1`)

	issuer, err := r.queryIssuer(ctx, query)
	if err != nil {
		if err == issuerDomain.ErrIssuerNotFound {
			return nil, issuerDomain.ErrNoIssuerSelected
		}
		return nil, err
	}
	return issuer, nil
}

// Update replaces the mutable issuer fields.
func (r *IssuerRepository) Update(ctx context.Context, issuer *issuerDomain.IssuerConfig) error {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `UPDATE issuers
		SET label = $1, directory_url = $2, environment = $3, contact_email = $4, account_key_ref = $5, tos_agreed = $6, is_selected = $7, disabled = $8, updated_at = $9
		WHERE id = $10`)

	result, err := querier.ExecContext(
		ctx,
		query,
		issuer.Label,
		issuer.DirectoryURL,
		issuer.Environment,
		issuer.ContactEmail,
		issuer.AccountKeyRef,
		issuer.TosAgreed,
		issuer.IsSelected,
		issuer.Disabled,
		issuer.UpdatedAt,
		issuer.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update issuer")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return issuerDomain.ErrIssuerNotFound
	}
	return nil
}

// Select marks one issuer as selected and clears the flag on every other.
// Callers run it inside a transaction so both statements land together.
func (r *IssuerRepository) Select(ctx context.Context, id string, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	clearQuery := database.Rebind(r.driver, `UPDATE issuers SET is_selected = FALSE, updated_at = $1 WHERE is_selected = TRUE AND id != $2`)
	if _, err := querier.ExecContext(ctx, clearQuery, now, id); err != nil {
		return apperrors.Wrap(err, "failed to clear issuer selection")
	}

	setQuery := database.Rebind(r.driver, `UPDATE issuers SET is_selected = TRUE, updated_at = $1 WHERE id = $2`)
	result, err := querier.ExecContext(ctx, setQuery, now, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to select issuer")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return issuerDomain.ErrIssuerNotFound
	}
	return nil
}

// Delete removes an issuer configuration.
func (r *IssuerRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, database.Rebind(r.driver, `DELETE FROM issuers WHERE id = $1`), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete issuer")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return issuerDomain.ErrIssuerNotFound
	}
	return nil
}

// List returns issuers newest first.
func (r *IssuerRepository) List(ctx context.Context, offset, limit int) ([]*issuerDomain.IssuerConfig, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT `+issuerColumns+`
		FROM issuers
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`)
	args := []any{offset, limit}
	if r.driver == "mysql" {
		query = database.Rebind(r.driver, `SELECT `+issuerColumns+`
			FROM issuers
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`)
		args = []any{limit, offset}
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list issuers")
	}
	defer func() { _ = rows.Close() }()

	var issuers []*issuerDomain.IssuerConfig
	for rows.Next() {
		issuer, err := scanIssuer(rows)
		if err != nil {
			return nil, err
		}
		issuers = append(issuers, issuer)
	}
	return issuers, rows.Err()
}

func (r *IssuerRepository) queryIssuer(ctx context.Context, query string, args ...any) (*issuerDomain.IssuerConfig, error) {
	querier := database.GetTx(ctx, r.db)

	var issuer issuerDomain.IssuerConfig
	err := querier.QueryRowContext(ctx, query, args...).Scan(
		&issuer.ID,
		&issuer.Label,
		&issuer.DirectoryURL,
		&issuer.Environment,
		&issuer.ContactEmail,
		&issuer.AccountKeyRef,
		&issuer.TosAgreed,
		&issuer.IsSelected,
		&issuer.Disabled,
		&issuer.CreatedAt,
		&issuer.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, issuerDomain.ErrIssuerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get issuer")
	}
	return &issuer, nil
}

func scanIssuer(rows *sql.Rows) (*issuerDomain.IssuerConfig, error) {
	var issuer issuerDomain.IssuerConfig
	if err := rows.Scan(
		&issuer.ID,
		&issuer.Label,
		&issuer.DirectoryURL,
		&issuer.Environment,
		&issuer.ContactEmail,
		&issuer.AccountKeyRef,
		&issuer.TosAgreed,
		&issuer.IsSelected,
		&issuer.Disabled,
		&issuer.CreatedAt,
		&issuer.UpdatedAt,
	); err != nil {
		return nil, apperrors.Wrap(err, "failed to scan issuer")
	}
	return &issuer, nil
}
