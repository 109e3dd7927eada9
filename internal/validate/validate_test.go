package validate_test

import (
	"testing"
	"time"

	"leadline/internal/domain"
	"leadline/internal/validate"
)

func TestPhone(t *testing.T) {
	valid := []string{
		"5555555555",
		"555-555-5555",
		"555.555.5555",
		"555 555 5555",
		"(555) 555-5555",
		"(555)555-5555",
	}
	for _, s := range valid {
		if !validate.Phone(s) {
			t.Errorf("Phone(%q) = false, want true", s)
		}
	}
	invalid := []string{
		"",
		"555-555-555",
		"555-555-55555",
		"1-555-555-5555",
		"555-55-5555",
		"phone",
	}
	for _, s := range invalid {
		if validate.Phone(s) {
			t.Errorf("Phone(%q) = true, want false", s)
		}
	}
}

func TestEmail(t *testing.T) {
	if !validate.Email("john.doe@example.com") {
		t.Errorf("expected valid email")
	}
	for _, s := range []string{"", "john", "john@", "john@example", "jo hn@example.com"} {
		if validate.Email(s) {
			t.Errorf("Email(%q) = true, want false", s)
		}
	}
}

func TestDate(t *testing.T) {
	if !validate.Date("02/29/2024") {
		t.Errorf("leap day should be valid")
	}
	for _, s := range []string{"", "2024-01-15", "13/01/2024", "02/30/2024", "1/5/2024", "02/29/2023"} {
		if validate.Date(s) {
			t.Errorf("Date(%q) = true, want false", s)
		}
	}
}

func TestSourceID(t *testing.T) {
	if !validate.SourceID("CC000042", "CC") {
		t.Errorf("expected valid source id")
	}
	for _, s := range []string{"", "CC42", "CC0000042", "XX000042", "CC00004a"} {
		if validate.SourceID(s, "CC") {
			t.Errorf("SourceID(%q) = true, want false", s)
		}
	}
}

func TestTooOld(t *testing.T) {
	today := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !validate.TooOld("01/15/2023", today) {
		t.Errorf("13-month gap should be too old")
	}
	if validate.TooOld("01/15/2023", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("11-month gap should not be too old")
	}
	// exactly 12 months is not greater than the threshold
	if validate.TooOld("02/28/2023", today) {
		t.Errorf("12-month gap should not be too old")
	}
	// day of month is ignored: 02/01/2023 vs 02/28/2024 would be 12 months
	if validate.TooOld("02/28/2023", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("same-month anniversary should not be too old")
	}
	// malformed input is not decided here
	for _, s := range []string{"", "2023", "01-15-2023", "aa/bb/cccc"} {
		if validate.TooOld(s, today) {
			t.Errorf("TooOld(%q) = true, want false", s)
		}
	}
}

func validLead() domain.Lead {
	return domain.Lead{
		CallerID:      "(555) 555-5555",
		SourceID:      "CC000001",
		IncidentState: "TX",
		IncidentDate:  "06/15/2024",
	}
}

func TestLeadValid(t *testing.T) {
	today := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	res := validate.Lead(validLead(), "CC", today)
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("expected valid lead, got errors %v", res.Errors)
	}
}

func TestLeadMissingFields(t *testing.T) {
	today := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	res := validate.Lead(domain.Lead{}, "CC", today)
	if res.Valid {
		t.Fatalf("expected invalid lead")
	}
	for _, field := range []string{"caller_id", "source_id", "incident_state", "incident_date"} {
		if _, ok := res.Errors[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, res.Errors)
		}
	}
	if _, ok := res.Errors["claimant_email"]; ok {
		t.Errorf("empty email should not error")
	}
}

func TestLeadMissingStateAlwaysErrors(t *testing.T) {
	today := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	l := validLead()
	l.IncidentState = ""
	res := validate.Lead(l, "CC", today)
	if res.Valid {
		t.Fatalf("expected invalid lead")
	}
	if res.Errors["incident_state"] == "" {
		t.Fatalf("expected incident_state error, got %v", res.Errors)
	}
}

func TestLeadIneligibleDateBlocks(t *testing.T) {
	today := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	l := validLead()
	l.IncidentDate = "01/15/2023"
	res := validate.Lead(l, "CC", today)
	if res.Valid {
		t.Fatalf("stale incident date must block submission")
	}
	if res.Errors["incident_date"] == "" {
		t.Fatalf("expected incident_date error, got %v", res.Errors)
	}
}

func TestLeadOptionalEmail(t *testing.T) {
	today := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	l := validLead()
	l.ClaimantEmail = "not-an-email"
	res := validate.Lead(l, "CC", today)
	if res.Valid || res.Errors["claimant_email"] == "" {
		t.Fatalf("expected claimant_email error, got %v", res.Errors)
	}
}
