package ledger

import (
	"fmt"
	"strings"
	"time"

	"leadline/internal/domain"
)

// csvColumns is the fixed export column set. Column names match the field
// names the buyer-side tooling expects, not the Go json tags.
var csvColumns = []string{
	"sourceId",
	"submittedAt",
	"status",
	"callerId",
	"claimantName",
	"claimantEmail",
	"incidentState",
	"incidentDate",
	"atFault",
	"attorney",
	"settlement",
	"seekingNewAttorney",
	"hasInsurance",
	"insuranceCoverage",
}

// ExportCSV renders submissions in the export dialect: booleans as Yes/No,
// absent values as empty strings, and values containing a comma wrapped in
// double quotes. Embedded double quotes inside quoted fields are not
// escaped; that is a known limitation of the format the downstream consumer
// expects, so encoding/csv (which would escape them and also emit a header
// for empty input) cannot be used here. Empty input returns "".
func ExportCSV(entries []domain.Submission) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(csvColumns, ","))
	for _, s := range entries {
		fields := make([]string, 0, len(csvColumns))
		for _, col := range csvColumns {
			fields = append(fields, csvValue(s, col))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// ExportFilename returns the dated download name for an export.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("lead-history-%s.csv", now.UTC().Format("2006-01-02"))
}

func csvValue(s domain.Submission, column string) string {
	switch column {
	case "sourceId":
		return quoteIfNeeded(s.Lead.SourceID)
	case "submittedAt":
		return quoteIfNeeded(s.SubmittedAt)
	case "status":
		return quoteIfNeeded(s.Status)
	case "callerId":
		return quoteIfNeeded(s.Lead.CallerID)
	case "claimantName":
		return quoteIfNeeded(s.Lead.ClaimantName)
	case "claimantEmail":
		return quoteIfNeeded(s.Lead.ClaimantEmail)
	case "incidentState":
		return quoteIfNeeded(s.Lead.IncidentState)
	case "incidentDate":
		return quoteIfNeeded(s.Lead.IncidentDate)
	case "atFault":
		return yesNo(s.Lead.AtFault)
	case "attorney":
		return yesNo(s.Lead.Attorney)
	case "settlement":
		return yesNo(s.Lead.Settlement)
	case "seekingNewAttorney":
		return yesNo(s.Lead.SeekingNewAttorney)
	case "hasInsurance":
		if s.Lead.HasInsurance == nil {
			return ""
		}
		return yesNo(*s.Lead.HasInsurance)
	case "insuranceCoverage":
		if s.Lead.InsuranceCoverage == nil {
			return ""
		}
		return quoteIfNeeded(*s.Lead.InsuranceCoverage)
	default:
		return ""
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func quoteIfNeeded(v string) string {
	if strings.Contains(v, ",") {
		return `"` + v + `"`
	}
	return v
}
