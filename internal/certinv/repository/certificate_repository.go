// Package repository implements persistence for the certificate inventory.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	certinvDomain "github.com/certkeep/certkeep/internal/certinv/domain"
	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
)

const certificateColumns = `id, request_id, source, domains, domain_roots, serial_number, fingerprint_sha256, issuer_cn, not_before, not_after, chain_pem, key_ref, tags, created_at, updated_at`

// CertificateRepository implements CertificateRecord persistence for SQL
// databases.
type CertificateRepository struct {
	db     *sql.DB
	driver string
}

// NewCertificateRepository creates a repository bound to the given driver.
func NewCertificateRepository(db *sql.DB, driver string) *CertificateRepository {
	return &CertificateRepository{db: db, driver: driver}
}

// Create inserts a certificate record.
func (r *CertificateRepository) Create(ctx context.Context, record *certinvDomain.CertificateRecord) error {
	querier := database.GetTx(ctx, r.db)

	domains, roots, tags, err := encodeLists(record)
	if err != nil {
		return err
	}

	query := database.Rebind(r.driver, `INSERT INTO certificates
		(`+certificateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.RequestID,
		record.Source,
		domains,
		roots,
		record.SerialNumber,
		record.FingerprintSHA256,
		record.IssuerCN,
		record.NotBefore,
		record.NotAfter,
		record.ChainPEM,
		record.KeyRef,
		tags,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create certificate")
	}
	return nil
}

// GetByID retrieves a certificate record.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*certinvDomain.CertificateRecord, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT `+certificateColumns+`
		FROM certificates
		WHERE id = $1
		LIMIT 1`)

	record, err := scanCertificate(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, certinvDomain.ErrCertificateNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get certificate")
	}
	return record, nil
}

// UpdateTags replaces the certificate's tags, the only mutable field.
func (r *CertificateRepository) UpdateTags(ctx context.Context, id string, tags []string, updatedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	encoded, err := json.Marshal(tags)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode certificate tags")
	}

	query := database.Rebind(r.driver, `UPDATE certificates SET tags = $1, updated_at = $2 WHERE id = $3`)
	result, err := querier.ExecContext(ctx, query, encoded, updatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update certificate tags")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return certinvDomain.ErrCertificateNotFound
	}
	return nil
}

// Delete removes a certificate record.
func (r *CertificateRepository) Delete(ctx context.Context, id string) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, database.Rebind(r.driver, `DELETE FROM certificates WHERE id = $1`), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete certificate")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return certinvDomain.ErrCertificateNotFound
	}
	return nil
}

// List returns certificates, newest first.
func (r *CertificateRepository) List(ctx context.Context, offset, limit int) ([]*certinvDomain.CertificateRecord, error) {
	query := database.Rebind(r.driver, `SELECT `+certificateColumns+`
		FROM certificates
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`)
	args := []any{offset, limit}
	if r.driver == "mysql" {
		query = database.Rebind(r.driver, `SELECT `+certificateColumns+`
			FROM certificates
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`)
		args = []any{limit, offset}
	}

	return r.queryCertificates(ctx, query, args...)
}

// ListExpiring returns certificates whose lifetime ends before the cutoff,
// soonest first.
func (r *CertificateRepository) ListExpiring(ctx context.Context, cutoff time.Time) ([]*certinvDomain.CertificateRecord, error) {
	query := database.Rebind(r.driver, `SELECT `+certificateColumns+`
		FROM certificates
		WHERE not_after < $1
		ORDER BY not_after ASC`)

	return r.queryCertificates(ctx, query, cutoff)
}

func (r *CertificateRepository) queryCertificates(ctx context.Context, query string, args ...any) ([]*certinvDomain.CertificateRecord, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list certificates")
	}
	defer func() { _ = rows.Close() }()

	var records []*certinvDomain.CertificateRecord
	for rows.Next() {
		record, err := scanCertificate(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan certificate")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row scanner) (*certinvDomain.CertificateRecord, error) {
	var (
		record  certinvDomain.CertificateRecord
		domains []byte
		roots   []byte
		tags    []byte
	)
	err := row.Scan(
		&record.ID,
		&record.RequestID,
		&record.Source,
		&domains,
		&roots,
		&record.SerialNumber,
		&record.FingerprintSHA256,
		&record.IssuerCN,
		&record.NotBefore,
		&record.NotAfter,
		&record.ChainPEM,
		&record.KeyRef,
		&tags,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(domains, &record.Domains); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode certificate domains")
	}
	if len(roots) > 0 {
		if err := json.Unmarshal(roots, &record.DomainRoots); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode certificate domain roots")
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &record.Tags); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode certificate tags")
		}
	}
	return &record, nil
}

func encodeLists(record *certinvDomain.CertificateRecord) ([]byte, []byte, []byte, error) {
	domains, err := json.Marshal(record.Domains)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to encode certificate domains")
	}
	roots, err := json.Marshal(record.DomainRoots)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to encode certificate domain roots")
	}
	tags, err := json.Marshal(record.Tags)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(err, "failed to encode certificate tags")
	}
	return domains, roots, tags, nil
}
