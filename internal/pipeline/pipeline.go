// Package pipeline composes validation, submission and bookkeeping into the
// end-to-end "submit a lead" operation. It owns the single operator draft
// and guarantees exactly one ledger entry per submit attempt.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadline/internal/buyer"
	"leadline/internal/config"
	"leadline/internal/domain"
	"leadline/internal/ledger"
	"leadline/internal/validate"
)

// Pipeline states.
const (
	StateIdle       = "idle"
	StateValidating = "validating"
	StateSubmitting = "submitting"
)

// ErrBusy is returned when a submit is attempted while another is in flight.
var ErrBusy = errors.New("a submission is already in flight")

type Pipeline struct {
	DB     *sql.DB
	Ledger ledger.Ledger
	Client buyer.Submitter
	Config *config.Config
	Now    func() time.Time

	mu    sync.Mutex
	state string
	draft domain.Lead
}

func New(db *sql.DB, cfg *config.Config, client buyer.Submitter) *Pipeline {
	return &Pipeline{
		DB:     db,
		Ledger: ledger.Ledger{DB: db},
		Client: client,
		Config: cfg,
		Now:    time.Now,
		state:  StateIdle,
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Start issues the first source id and prepares an empty draft. Must be
// called once before the draft is edited or submitted.
func (p *Pipeline) Start(ctx context.Context) (domain.Lead, error) {
	id, err := p.Ledger.NextSourceID(ctx, p.Config.Lead.SourcePrefix)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("issue source id: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = p.emptyDraft(id)
	return p.draft, nil
}

func (p *Pipeline) emptyDraft(sourceID string) domain.Lead {
	return domain.Lead{
		SourceID: sourceID,
		PubID:    p.Config.Lead.PubID,
		IsTest:   p.Config.Lead.IsTest,
	}
}

// State reports the current pipeline state.
func (p *Pipeline) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Draft returns a copy of the current draft and whether its incident date
// already falls outside the eligibility window (advisory only).
func (p *Pipeline) Draft() (domain.Lead, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft, validate.TooOld(p.draft.IncidentDate, p.now())
}

// DraftUpdate is a partial edit of the draft. Nil fields are untouched.
// SourceID is absent on purpose: it is system-assigned.
type DraftUpdate struct {
	CallerID           *string `json:"caller_id,omitempty"`
	ClaimantName       *string `json:"claimant_name,omitempty"`
	ClaimantEmail      *string `json:"claimant_email,omitempty"`
	IncidentState      *string `json:"incident_state,omitempty"`
	IncidentDate       *string `json:"incident_date,omitempty"`
	AtFault            *bool   `json:"at_fault,omitempty"`
	Attorney           *bool   `json:"attorney,omitempty"`
	SeekingNewAttorney *bool   `json:"seeking_new_attorney,omitempty"`
	Settlement         *bool   `json:"settlement,omitempty"`
	HasInsurance       *bool   `json:"has_insurance,omitempty"`
	InsuranceCoverage  *string `json:"insurance_coverage,omitempty" enum:"both,unsure,none"`
	TrustedFormCertURL *string `json:"trusted_form_cert_url,omitempty"`
}

// UpdateDraft applies the edit and returns the new draft plus the advisory
// eligibility warning. Turning attorney off always clears
// seekingNewAttorney in the same update; the flag can never be left true
// while attorney is false.
func (p *Pipeline) UpdateDraft(upd DraftUpdate) (domain.Lead, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return domain.Lead{}, false, ErrBusy
	}
	if upd.InsuranceCoverage != nil {
		switch *upd.InsuranceCoverage {
		case domain.CoverageBoth, domain.CoverageUnsure, domain.CoverageNone:
		default:
			return domain.Lead{}, false, fmt.Errorf("invalid insurance coverage %q", *upd.InsuranceCoverage)
		}
	}
	d := &p.draft
	setString(&d.CallerID, upd.CallerID)
	setString(&d.ClaimantName, upd.ClaimantName)
	setString(&d.ClaimantEmail, upd.ClaimantEmail)
	setString(&d.IncidentState, upd.IncidentState)
	setString(&d.IncidentDate, upd.IncidentDate)
	setBool(&d.AtFault, upd.AtFault)
	setBool(&d.Attorney, upd.Attorney)
	setBool(&d.SeekingNewAttorney, upd.SeekingNewAttorney)
	setBool(&d.Settlement, upd.Settlement)
	if upd.HasInsurance != nil {
		v := *upd.HasInsurance
		d.HasInsurance = &v
	}
	if upd.InsuranceCoverage != nil {
		v := *upd.InsuranceCoverage
		d.InsuranceCoverage = &v
	}
	setString(&d.TrustedFormCertURL, upd.TrustedFormCertURL)
	if !d.Attorney {
		d.SeekingNewAttorney = false
	}
	if d.HasInsurance == nil || !*d.HasInsurance {
		d.InsuranceCoverage = nil
	}
	return *d, validate.TooOld(d.IncidentDate, p.now()), nil
}

// Outcome is the result of one submit run that reached the buyer.
type Outcome struct {
	Status      string            `json:"status" enum:"success,failed"`
	Submission  domain.Submission `json:"submission"`
	TransferDID string            `json:"transfer_did,omitempty"`
	Message     string            `json:"message,omitempty"`
}

// Submit runs the full pipeline on the current draft. Validation failures
// return a validate.Errors and perform no side effects at all. Once the
// buyer is called, exactly one ledger entry is appended whatever the
// outcome: success resets the draft under a freshly issued source id,
// failure keeps the draft untouched for correction and resubmission.
func (p *Pipeline) Submit(ctx context.Context) (Outcome, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	p.state = StateValidating
	lead := p.draft
	p.mu.Unlock()

	res := validate.Lead(lead, p.Config.Lead.SourcePrefix, p.now())
	if !res.Valid {
		p.setState(StateIdle)
		return Outcome{}, validate.Errors{Fields: res.Errors}
	}

	p.setState(StateSubmitting)
	defer p.setState(StateIdle)

	ack, submitErr := p.Client.Submit(ctx, lead)

	sub := domain.Submission{
		ID:          uuid.NewString(),
		Lead:        lead,
		SubmittedAt: p.now().UTC().Format(time.RFC3339),
	}
	var message string
	switch {
	case submitErr != nil:
		sub.Status = domain.StatusFailed
		sub.APIResponse = submitErr.Error()
		message = submitErr.Error()
	case !ack.Accepted():
		sub.Status = domain.StatusFailed
		sub.APIResponse = fmt.Sprintf("rejected: status=%s %s", ack.Status, ack.Message)
		message = "Lead submission failed. Please try again."
	default:
		sub.Status = domain.StatusSuccess
		sub.APIResponse = fmt.Sprintf("status=%s %s", ack.Status, ack.Message)
	}

	if err := p.Ledger.Append(ctx, sub); err != nil {
		return Outcome{}, fmt.Errorf("record submission: %w", err)
	}

	out := Outcome{Status: sub.Status, Submission: sub, Message: message}
	if sub.Status == domain.StatusSuccess {
		id, err := p.Ledger.NextSourceID(ctx, p.Config.Lead.SourcePrefix)
		if err != nil {
			return Outcome{}, fmt.Errorf("issue next source id: %w", err)
		}
		p.mu.Lock()
		p.draft = p.emptyDraft(id)
		p.mu.Unlock()
		out.TransferDID = p.Config.Transfer.DID
	}
	return out, nil
}

func (p *Pipeline) setState(s string) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
