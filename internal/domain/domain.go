package domain

// Insurance coverage answers for leads that carry insurance.
const (
	CoverageBoth   = "both"
	CoverageUnsure = "unsure"
	CoverageNone   = "none"
)

// Submission statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Lead is the intake draft a call-center operator fills in. SourceID is
// system-assigned and never operator-editable. HasInsurance and
// InsuranceCoverage stay nil until the operator answers them; coverage is
// only meaningful while HasInsurance is true.
type Lead struct {
	CallerID           string  `json:"caller_id"`
	ClaimantName       string  `json:"claimant_name,omitempty"`
	ClaimantEmail      string  `json:"claimant_email,omitempty"`
	SourceID           string  `json:"source_id"`
	IncidentState      string  `json:"incident_state"`
	IncidentDate       string  `json:"incident_date"`
	AtFault            bool    `json:"at_fault"`
	Attorney           bool    `json:"attorney"`
	SeekingNewAttorney bool    `json:"seeking_new_attorney"`
	Settlement         bool    `json:"settlement"`
	HasInsurance       *bool   `json:"has_insurance,omitempty"`
	InsuranceCoverage  *string `json:"insurance_coverage,omitempty" enum:"both,unsure,none"`
	TrustedFormCertURL string  `json:"trusted_form_cert_url,omitempty"`
	PubID              string  `json:"pub_id,omitempty"`
	IsTest             bool    `json:"is_test"`
}

// Submission is a frozen copy of a Lead plus the outcome of one submit
// attempt. Exactly one is appended to the ledger per pipeline run.
type Submission struct {
	ID          string `json:"id"`
	Lead        Lead   `json:"lead"`
	SubmittedAt string `json:"submitted_at" format:"date-time"`
	Status      string `json:"status" enum:"success,failed"`
	APIResponse string `json:"api_response,omitempty"`
}

// States lists the accepted incident state codes (50 states plus DC).
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"DC",
}

var stateSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(States))
	for _, s := range States {
		m[s] = struct{}{}
	}
	return m
}()

// ValidState reports whether code is one of the accepted state codes.
func ValidState(code string) bool {
	_, ok := stateSet[code]
	return ok
}
