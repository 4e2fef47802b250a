// Package repository implements persistence for issuance runs. Challenge
// records and the ACME order snapshot are stored as JSON documents alongside
// the run row so a paused or retried run can resume from disk.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/certkeep/certkeep/internal/database"
	apperrors "github.com/certkeep/certkeep/internal/errors"
	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
)

const requestColumns = `id, issuer_id, domains, key_algorithm, state, records, acme_order, failure_category, failure_detail, retryable, certificate_id, archived, created_at, updated_at, completed_at`

// RequestRepository implements IssuanceRequest persistence for SQL databases.
type RequestRepository struct {
	db     *sql.DB
	driver string
}

// NewRequestRepository creates a repository bound to the given driver.
func NewRequestRepository(db *sql.DB, driver string) *RequestRepository {
	return &RequestRepository{db: db, driver: driver}
}

// Create inserts an issuance run.
func (r *RequestRepository) Create(ctx context.Context, request *issuanceDomain.IssuanceRequest) error {
	querier := database.GetTx(ctx, r.db)

	domains, records, err := encodeDocuments(request)
	if err != nil {
		return err
	}

	query := database.Rebind(r.driver, `INSERT INTO issuance_requests
		(`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		request.ID,
		request.IssuerID,
		domains,
		request.KeyAlgorithm,
		request.State,
		records,
		nullableBytes(request.OrderJSON),
		request.FailureCategory,
		request.FailureDetail,
		request.Retryable,
		request.CertificateID,
		request.Archived,
		request.CreatedAt,
		request.UpdatedAt,
		request.CompletedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create issuance request")
	}
	return nil
}

// GetByID retrieves an issuance run.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*issuanceDomain.IssuanceRequest, error) {
	querier := database.GetTx(ctx, r.db)

	query := database.Rebind(r.driver, `SELECT `+requestColumns+`
		FROM issuance_requests
		WHERE id = $1
		LIMIT 1`)

	row := querier.QueryRowContext(ctx, query, id)
	request, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, issuanceDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get issuance request")
	}
	return request, nil
}

// Update replaces the run's mutable state.
func (r *RequestRepository) Update(ctx context.Context, request *issuanceDomain.IssuanceRequest) error {
	querier := database.GetTx(ctx, r.db)

	domains, records, err := encodeDocuments(request)
	if err != nil {
		return err
	}

	query := database.Rebind(r.driver, `UPDATE issuance_requests
		SET domains = $1, state = $2, records = $3, acme_order = $4, failure_category = $5, failure_detail = $6, retryable = $7, certificate_id = $8, archived = $9, updated_at = $10, completed_at = $11
		WHERE id = $12`)

	result, err := querier.ExecContext(
		ctx,
		query,
		domains,
		request.State,
		records,
		nullableBytes(request.OrderJSON),
		request.FailureCategory,
		request.FailureDetail,
		request.Retryable,
		request.CertificateID,
		request.Archived,
		request.UpdatedAt,
		request.CompletedAt,
		request.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update issuance request")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return issuanceDomain.ErrRequestNotFound
	}
	return nil
}

// List returns non-archived runs, newest first.
func (r *RequestRepository) List(ctx context.Context, offset, limit int) ([]*issuanceDomain.IssuanceRequest, error) {
	query := database.Rebind(r.driver, `SELECT `+requestColumns+`
		FROM issuance_requests
		WHERE archived = FALSE
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`)
	args := []any{offset, limit}
	if r.driver == "mysql" {
		query = database.Rebind(r.driver, `SELECT `+requestColumns+`
			FROM issuance_requests
			WHERE archived = FALSE
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`)
		args = []any{limit, offset}
	}

	return r.queryRequests(ctx, query, args...)
}

// ListActive returns every run that has not reached a terminal state, used
// to surface in-flight work after a restart.
func (r *RequestRepository) ListActive(ctx context.Context) ([]*issuanceDomain.IssuanceRequest, error) {
	query := database.Rebind(r.driver, `SELECT `+requestColumns+`
		FROM issuance_requests
		WHERE state NOT IN ($1, $2)
		ORDER BY created_at ASC`)

	return r.queryRequests(ctx, query, issuanceDomain.StateCompleted, issuanceDomain.StateFailed)
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]*issuanceDomain.IssuanceRequest, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list issuance requests")
	}
	defer func() { _ = rows.Close() }()

	var requests []*issuanceDomain.IssuanceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan issuance request")
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*issuanceDomain.IssuanceRequest, error) {
	var (
		request issuanceDomain.IssuanceRequest
		domains []byte
		records []byte
		order   []byte
	)
	err := row.Scan(
		&request.ID,
		&request.IssuerID,
		&domains,
		&request.KeyAlgorithm,
		&request.State,
		&records,
		&order,
		&request.FailureCategory,
		&request.FailureDetail,
		&request.Retryable,
		&request.CertificateID,
		&request.Archived,
		&request.CreatedAt,
		&request.UpdatedAt,
		&request.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(domains, &request.Domains); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode issuance domains")
	}
	if len(records) > 0 {
		if err := json.Unmarshal(records, &request.Records); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode challenge records")
		}
	}
	request.OrderJSON = order

	return &request, nil
}

func encodeDocuments(request *issuanceDomain.IssuanceRequest) ([]byte, []byte, error) {
	domains, err := json.Marshal(request.Domains)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode issuance domains")
	}
	records, err := json.Marshal(request.Records)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode challenge records")
	}
	return domains, records, nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
