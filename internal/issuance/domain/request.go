// Package domain defines the issuance run model: the request record, its
// state machine, and the orchestration error taxonomy.
package domain

import (
	"time"

	"github.com/google/uuid"

	dnsDomain "github.com/certkeep/certkeep/internal/dnsprovider/domain"
)

// RequestState is the lifecycle state of an issuance run.
type RequestState string

// Issuance run states. Completed and Failed are terminal.
const (
	StateStarted            RequestState = "started"
	StateDNSPending         RequestState = "dns_pending"
	StateManualIntervention RequestState = "manual_intervention_required"
	StatePropagating        RequestState = "propagating"
	StateFinalizing         RequestState = "finalizing"
	StateCompleted          RequestState = "completed"
	StateFailed             RequestState = "failed"
)

// Terminal reports whether the state ends the run.
func (s RequestState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// transitions lists the legal moves of the run state machine. Any state may
// additionally move to failed.
var transitions = map[RequestState][]RequestState{
	StateStarted:            {StateDNSPending},
	StateDNSPending:         {StateManualIntervention, StatePropagating},
	StateManualIntervention: {StatePropagating},
	StatePropagating:        {StateManualIntervention, StateFinalizing},
	StateFinalizing:         {StateCompleted, StatePropagating},
	StateFailed:             {StatePropagating, StateFinalizing},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s RequestState) CanTransitionTo(next RequestState) bool {
	if next == StateFailed {
		return !s.Terminal()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ChallengeRecord is the per-domain TXT record an issuance run manages,
// together with its last observed propagation state.
type ChallengeRecord struct {
	Domain      string                 `json:"domain"`
	FQDN        string                 `json:"fqdn"`
	Value       string                 `json:"value"`
	Zone        string                 `json:"zone,omitempty"`
	ProviderID  string                 `json:"provider_id,omitempty"`
	AdapterKind dnsDomain.ProviderKind `json:"adapter_kind"`
	Manual      bool                   `json:"manual"`
	State       dnsDomain.RecordState  `json:"state"`
	Detail      string                 `json:"detail,omitempty"`
}

// IssuanceRequest is one certificate issuance run.
type IssuanceRequest struct {
	ID              string            `json:"id"`
	IssuerID        string            `json:"issuer_id"`
	Domains         []string          `json:"domains"`
	KeyAlgorithm    string            `json:"key_algorithm,omitempty"`
	State           RequestState      `json:"state"`
	Records         []ChallengeRecord `json:"records,omitempty"`
	OrderJSON       []byte            `json:"-"`
	FailureCategory FailureCategory   `json:"failure_category,omitempty"`
	FailureDetail   string            `json:"failure_detail,omitempty"`
	Retryable       bool              `json:"retryable,omitempty"`
	CertificateID   string            `json:"certificate_id,omitempty"`
	Archived        bool              `json:"archived"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// NewRequestID generates an issuance request id.
func NewRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clone returns a deep copy of the request. Supervised runs mutate their own
// copy; callers get clones so reads never race the run goroutine.
func (r *IssuanceRequest) Clone() *IssuanceRequest {
	cp := *r
	cp.Domains = append([]string(nil), r.Domains...)
	cp.Records = append([]ChallengeRecord(nil), r.Records...)
	cp.OrderJSON = append([]byte(nil), r.OrderJSON...)
	return &cp
}

// ManualRecords returns the records that require user action.
func (r *IssuanceRequest) ManualRecords() []ChallengeRecord {
	var manual []ChallengeRecord
	for _, record := range r.Records {
		if record.Manual {
			manual = append(manual, record)
		}
	}
	return manual
}

// AllRecordsFound reports whether every challenge record has been observed
// in DNS with the expected content.
func (r *IssuanceRequest) AllRecordsFound() bool {
	if len(r.Records) == 0 {
		return false
	}
	for _, record := range r.Records {
		if record.State != dnsDomain.StateFound {
			return false
		}
	}
	return true
}
