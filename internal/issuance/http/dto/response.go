package dto

import (
	"time"

	issuanceDomain "github.com/certkeep/certkeep/internal/issuance/domain"
)

// ChallengeRecordResponse is one TXT record a run manages, with the last
// observed propagation state. For manual providers the name and value are
// what the user must publish.
type ChallengeRecordResponse struct {
	Domain      string `json:"domain"`
	FQDN        string `json:"fqdn"`
	Value       string `json:"value"`
	AdapterKind string `json:"adapter_kind"`
	Manual      bool   `json:"manual"`
	State       string `json:"state"`
	Detail      string `json:"detail,omitempty"`
}

// IssuanceRequestResponse represents an issuance run in API responses.
type IssuanceRequestResponse struct {
	ID              string                    `json:"id"`
	IssuerID        string                    `json:"issuer_id"`
	Domains         []string                  `json:"domains"`
	KeyAlgorithm    string                    `json:"key_algorithm,omitempty"`
	State           string                    `json:"state"`
	Records         []ChallengeRecordResponse `json:"records,omitempty"`
	FailureCategory string                    `json:"failure_category,omitempty"`
	FailureDetail   string                    `json:"failure_detail,omitempty"`
	Retryable       bool                      `json:"retryable"`
	CertificateID   string                    `json:"certificate_id,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	CompletedAt     *time.Time                `json:"completed_at,omitempty"`
}

// MapRequestToResponse converts a domain issuance run to a response DTO.
func MapRequestToResponse(request *issuanceDomain.IssuanceRequest) IssuanceRequestResponse {
	response := IssuanceRequestResponse{
		ID:              request.ID,
		IssuerID:        request.IssuerID,
		Domains:         request.Domains,
		KeyAlgorithm:    request.KeyAlgorithm,
		State:           string(request.State),
		FailureCategory: string(request.FailureCategory),
		FailureDetail:   request.FailureDetail,
		Retryable:       request.Retryable,
		CertificateID:   request.CertificateID,
		CreatedAt:       request.CreatedAt,
		UpdatedAt:       request.UpdatedAt,
		CompletedAt:     request.CompletedAt,
	}
	for _, record := range request.Records {
		response.Records = append(response.Records, ChallengeRecordResponse{
			Domain:      record.Domain,
			FQDN:        record.FQDN,
			Value:       record.Value,
			AdapterKind: string(record.AdapterKind),
			Manual:      record.Manual,
			State:       string(record.State),
			Detail:      record.Detail,
		})
	}
	return response
}

// ListRequestsResponse represents a paginated list of issuance runs.
type ListRequestsResponse struct {
	Requests []IssuanceRequestResponse `json:"requests"`
}

// MapRequestsToListResponse converts domain runs to a list response.
func MapRequestsToListResponse(requests []*issuanceDomain.IssuanceRequest) ListRequestsResponse {
	out := ListRequestsResponse{Requests: make([]IssuanceRequestResponse, 0, len(requests))}
	for _, request := range requests {
		out.Requests = append(out.Requests, MapRequestToResponse(request))
	}
	return out
}
