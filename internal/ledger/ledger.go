package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leadline/internal/domain"
)

// Ledger is the durable store shared by the sequence generator and the
// submission history. Both run read-then-write sequences, so every mutation
// happens inside a single transaction.
type Ledger struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// NextSourceID increments the persistent counter and returns the new id as
// prefix + six zero-padded digits. The counter update commits before the id
// is handed out; if persistence fails no id is returned, so an unpersisted
// or duplicate id can never leak into a lead.
func (l Ledger) NextSourceID(ctx context.Context, prefix string) (string, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin sequence tx: %w", err)
	}
	defer tx.Rollback()

	var counter int64
	err = tx.QueryRowContext(ctx, `SELECT counter FROM source_sequence WHERE id=1`).Scan(&counter)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("read sequence counter: %w", err)
	}
	next := counter + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO source_sequence(id,counter) VALUES (1,?) ON CONFLICT(id) DO UPDATE SET counter=excluded.counter`,
		next); err != nil {
		return "", fmt.Errorf("persist sequence counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit sequence counter: %w", err)
	}
	return fmt.Sprintf("%s%06d", prefix, next), nil
}

// LastCounter returns the last persisted counter value, zero if absent.
func (l Ledger) LastCounter(ctx context.Context) (int64, error) {
	var counter int64
	err := l.DB.QueryRowContext(ctx, `SELECT counter FROM source_sequence WHERE id=1`).Scan(&counter)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return counter, err
}

// Append adds one submission to the history. The history is append-only:
// nothing ever updates or deletes rows.
func (l Ledger) Append(ctx context.Context, s domain.Submission) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `INSERT INTO submissions(
		id,source_id,submitted_at,status,api_response,
		caller_id,claimant_name,claimant_email,incident_state,incident_date,
		at_fault,attorney,seeking_new_attorney,settlement,
		has_insurance,insurance_coverage,trusted_form_cert_url,pub_id,is_test
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Lead.SourceID, s.SubmittedAt, s.Status, nullable(s.APIResponse),
		s.Lead.CallerID, nullable(s.Lead.ClaimantName), nullable(s.Lead.ClaimantEmail),
		s.Lead.IncidentState, s.Lead.IncidentDate,
		s.Lead.AtFault, s.Lead.Attorney, s.Lead.SeekingNewAttorney, s.Lead.Settlement,
		nullableBool(s.Lead.HasInsurance), nullableStr(s.Lead.InsuranceCoverage),
		nullable(s.Lead.TrustedFormCertURL), nullable(s.Lead.PubID), s.Lead.IsTest)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return tx.Commit()
}

// List returns all submissions in insertion order.
func (l Ledger) List(ctx context.Context) ([]domain.Submission, error) {
	return l.list(ctx, `SELECT `+submissionCols+` FROM submissions ORDER BY rowid ASC`)
}

// ListRecentFirst returns all submissions newest first, for display.
func (l Ledger) ListRecentFirst(ctx context.Context) ([]domain.Submission, error) {
	return l.list(ctx, `SELECT `+submissionCols+` FROM submissions ORDER BY submitted_at DESC, rowid DESC`)
}

// Get returns one submission by id.
func (l Ledger) Get(ctx context.Context, id string) (domain.Submission, error) {
	row := l.DB.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=?`, id)
	s, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

const submissionCols = `id,source_id,submitted_at,status,api_response,
	caller_id,claimant_name,claimant_email,incident_state,incident_date,
	at_fault,attorney,seeking_new_attorney,settlement,
	has_insurance,insurance_coverage,trusted_form_cert_url,pub_id,is_test`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (domain.Submission, error) {
	var s domain.Submission
	var apiResponse, claimantName, claimantEmail, coverage, certURL, pubID sql.NullString
	var hasInsurance sql.NullBool
	err := row.Scan(&s.ID, &s.Lead.SourceID, &s.SubmittedAt, &s.Status, &apiResponse,
		&s.Lead.CallerID, &claimantName, &claimantEmail, &s.Lead.IncidentState, &s.Lead.IncidentDate,
		&s.Lead.AtFault, &s.Lead.Attorney, &s.Lead.SeekingNewAttorney, &s.Lead.Settlement,
		&hasInsurance, &coverage, &certURL, &pubID, &s.Lead.IsTest)
	if err != nil {
		return s, err
	}
	s.APIResponse = apiResponse.String
	s.Lead.ClaimantName = claimantName.String
	s.Lead.ClaimantEmail = claimantEmail.String
	s.Lead.TrustedFormCertURL = certURL.String
	s.Lead.PubID = pubID.String
	if hasInsurance.Valid {
		v := hasInsurance.Bool
		s.Lead.HasInsurance = &v
	}
	if coverage.Valid {
		v := coverage.String
		s.Lead.InsuranceCoverage = &v
	}
	return s, nil
}

func (l Ledger) list(ctx context.Context, query string) ([]domain.Submission, error) {
	rows, err := l.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
