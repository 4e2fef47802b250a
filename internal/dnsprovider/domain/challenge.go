package domain

// RecordState classifies the live DNS view of a challenge TXT record. States
// are derived from lookups on each poll tick and never cached across ticks.
type RecordState string

// Challenge record states.
const (
	// StatePending means the record has not been checked yet.
	StatePending RecordState = "pending"
	// StateFound means a TXT record with the expected value was observed.
	StateFound RecordState = "found"
	// StateWrongContent means TXT records exist at the name but none carries
	// the expected value.
	StateWrongContent RecordState = "wrong_content"
	// StateNXDomain means no record exists at the name.
	StateNXDomain RecordState = "nx_domain"
	// StateError means the lookup itself failed.
	StateError RecordState = "error"
)

// ChallengeRecord is one DNS-01 TXT record to publish and verify, one per
// domain in an issuance request.
type ChallengeRecord struct {
	// RecordName is the FQDN of the TXT record
	// ("_acme-challenge.a.example.com").
	RecordName string `json:"record_name"`
	// Value is the expected TXT content derived from the challenge token.
	Value string `json:"value"`
	// Zone is the DNS zone the record lives in, filled after discovery.
	Zone string `json:"zone,omitempty"`
	// AdapterKind names the adapter responsible for this record.
	AdapterKind ProviderKind `json:"adapter_kind"`
	// State is the last observed propagation state.
	State RecordState `json:"state"`
}

// Manual reports whether a human must publish this record.
func (r *ChallengeRecord) Manual() bool {
	return r.AdapterKind == KindManual
}
