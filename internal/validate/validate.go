package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"leadline/internal/domain"
)

// Leads older than this many whole calendar months are ineligible.
const EligibilityMonths = 12

var (
	phoneRe = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dateRe  = regexp.MustCompile(`^(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01])/\d{4}$`)
)

// Phone reports whether s is a 10-digit US phone number, allowing an
// optional leading paren and -, . or space separators.
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Email reports whether s has a local@domain.tld shape.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Date reports whether s is a calendar-valid MM/DD/YYYY date.
func Date(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	parts := strings.Split(s, "/")
	month, _ := strconv.Atoi(parts[0])
	day, _ := strconv.Atoi(parts[1])
	year, _ := strconv.Atoi(parts[2])
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && d.Month() == time.Month(month) && d.Day() == day
}

// SourceID reports whether id is prefix followed by exactly six digits.
func SourceID(id, prefix string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	digits := id[len(prefix):]
	if len(digits) != 6 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TooOld reports whether the incident date is more than EligibilityMonths
// whole calendar months before today. The day of month is deliberately
// ignored: the threshold counts month boundaries only, matching the intake
// policy the call center runs on. Malformed input returns false; the format
// check in Lead catches those separately.
func TooOld(dateStr string, today time.Time) bool {
	if dateStr == "" {
		return false
	}
	parts := strings.Split(dateStr, "/")
	if len(parts) != 3 {
		return false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}
	monthsDiff := (today.Year()-year)*12 + int(today.Month()) - month
	return monthsDiff > EligibilityMonths
}

// Result is the outcome of validating a full lead.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Lead checks every field rule against the draft. The returned error map is
// keyed by field name; the lead is valid iff the map is empty. An incident
// date past the eligibility window is a blocking failure here, not just an
// advisory flag.
func Lead(l domain.Lead, prefix string, today time.Time) Result {
	errs := map[string]string{}

	if l.CallerID == "" {
		errs["caller_id"] = "Phone number is required"
	} else if !Phone(l.CallerID) {
		errs["caller_id"] = "Please enter a valid phone number"
	}

	if l.SourceID == "" {
		errs["source_id"] = "Source ID is required"
	} else if !SourceID(l.SourceID, prefix) {
		errs["source_id"] = "Invalid Source ID format"
	}

	if l.IncidentState == "" {
		errs["incident_state"] = "Incident state is required"
	} else if !domain.ValidState(l.IncidentState) {
		errs["incident_state"] = "Unknown incident state"
	}

	if l.IncidentDate == "" {
		errs["incident_date"] = "Incident date is required"
	} else if !Date(l.IncidentDate) {
		errs["incident_date"] = "Please enter a valid date (MM/DD/YYYY)"
	} else if TooOld(l.IncidentDate, today) {
		errs["incident_date"] = fmt.Sprintf("Accident date is more than %d months old", EligibilityMonths)
	}

	if l.ClaimantEmail != "" && !Email(l.ClaimantEmail) {
		errs["claimant_email"] = "Please enter a valid email address"
	}

	if len(errs) == 0 {
		return Result{Valid: true}
	}
	return Result{Errors: errs}
}

// Errors is a validation failure carrying the per-field messages.
type Errors struct {
	Fields map[string]string
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}
