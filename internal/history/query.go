package history

import (
	"fmt"
	"strings"

	"medibot-afrika/internal/consultation"
)

// UrgencyFilter is either FilterAll or one of the urgency levels.
type UrgencyFilter string

const FilterAll UrgencyFilter = "all"

// ParseUrgencyFilter accepts "all", an urgency level, or an empty string
// (treated as all).
func ParseUrgencyFilter(s string) (UrgencyFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	if !consultation.Urgency(s).Valid() {
		return "", fmt.Errorf("unknown urgency filter %q", s)
	}
	return UrgencyFilter(s), nil
}

// Query returns the records whose patient name or condition contains
// searchTerm (case-insensitive) and whose urgency passes the filter. The input
// order is kept. Query has no side effects.
func Query(records []consultation.ConsultationRecord, searchTerm string, filter UrgencyFilter) []consultation.ConsultationRecord {
	term := strings.ToLower(searchTerm)
	out := make([]consultation.ConsultationRecord, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, term) || !matchesUrgency(r, filter) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r consultation.ConsultationRecord, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Patient.Name), term) ||
		strings.Contains(strings.ToLower(r.Diagnosis.Condition), term)
}

func matchesUrgency(r consultation.ConsultationRecord, filter UrgencyFilter) bool {
	return filter == FilterAll || filter == "" || consultation.Urgency(filter) == r.Diagnosis.Urgency
}
