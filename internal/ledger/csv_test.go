package ledger_test

import (
	"strings"
	"testing"
	"time"

	"leadline/internal/domain"
	"leadline/internal/ledger"
)

func TestExportCSVEmpty(t *testing.T) {
	if got := ledger.ExportCSV(nil); got != "" {
		t.Fatalf("empty export = %q, want empty string", got)
	}
	if got := ledger.ExportCSV([]domain.Submission{}); got != "" {
		t.Fatalf("empty export = %q, want empty string", got)
	}
}

func TestExportCSVQuotesCommas(t *testing.T) {
	s := submission("CC000001", "2024-08-01T10:00:00Z", domain.StatusSuccess)
	s.Lead.ClaimantName = "Doe, Jane"
	out := ledger.ExportCSV([]domain.Submission{s})

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "sourceId,submittedAt,status,callerId,claimantName") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"Doe, Jane"`) {
		t.Fatalf("comma-containing value not quoted: %s", lines[1])
	}
}

func TestExportCSVBooleansAndAbsents(t *testing.T) {
	s := submission("CC000001", "2024-08-01T10:00:00Z", domain.StatusSuccess)
	s.Lead.AtFault = true
	out := ledger.ExportCSV([]domain.Submission{s})
	row := strings.Split(out, "\n")[1]
	cols := strings.Split(row, ",")
	// sourceId,submittedAt,status,callerId,claimantName,claimantEmail,
	// incidentState,incidentDate,atFault,attorney,settlement,
	// seekingNewAttorney,hasInsurance,insuranceCoverage
	if cols[8] != "Yes" {
		t.Fatalf("atFault = %q, want Yes", cols[8])
	}
	if cols[9] != "No" {
		t.Fatalf("attorney = %q, want No", cols[9])
	}
	if cols[4] != "" || cols[5] != "" {
		t.Fatalf("absent name/email should render empty, got %q, %q", cols[4], cols[5])
	}
	if cols[12] != "" || cols[13] != "" {
		t.Fatalf("unanswered insurance should render empty, got %q, %q", cols[12], cols[13])
	}

	yes := true
	coverage := domain.CoverageUnsure
	s.Lead.HasInsurance = &yes
	s.Lead.InsuranceCoverage = &coverage
	row = strings.Split(ledger.ExportCSV([]domain.Submission{s}), "\n")[1]
	cols = strings.Split(row, ",")
	if cols[12] != "Yes" || cols[13] != "unsure" {
		t.Fatalf("insurance columns = %q, %q", cols[12], cols[13])
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 8, 1, 15, 4, 5, 0, time.UTC)
	if got := ledger.ExportFilename(now); got != "lead-history-2024-08-01.csv" {
		t.Fatalf("filename = %s", got)
	}
}
