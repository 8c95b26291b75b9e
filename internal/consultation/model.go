package consultation

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Urgency drives both display emphasis and log filtering.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Urgencies lists every urgency level, lowest first.
var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// RecommendedAction is the suggested care pathway.
type RecommendedAction string

const (
	ActionLocalTreatment RecommendedAction = "local_treatment"
	ActionReferClinic    RecommendedAction = "refer_clinic"
	ActionEmergency      RecommendedAction = "emergency"
)

func (a RecommendedAction) Valid() bool {
	switch a {
	case ActionLocalTreatment, ActionReferClinic, ActionEmergency:
		return true
	}
	return false
}

// IsReferral reports whether the patient has to leave the community worker's care.
func (a RecommendedAction) IsReferral() bool {
	return a == ActionReferClinic || a == ActionEmergency
}

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwahili Language = "sw"
)

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageSwahili
}

type PatientInfo struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
	Symptoms string `json:"symptoms"`
}

type DiagnosisResult struct {
	Condition            string            `json:"condition"`
	Confidence           int               `json:"confidence"` // percent, 0-100
	SymptomsAnalysis     string            `json:"symptoms_analysis"`
	RecommendedAction    RecommendedAction `json:"recommended_action"`
	Urgency              Urgency           `json:"urgency"`
	TreatmentSuggestions []string          `json:"treatment_suggestions"`
}

// ConsultationRecord is one entry of the referral log.
type ConsultationRecord struct {
	ID        uuid.UUID       `json:"id"`
	Patient   PatientInfo     `json:"patient"`
	Diagnosis DiagnosisResult `json:"diagnosis"`
	Timestamp string          `json:"timestamp"`
}

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the record timestamp. A zero time is returned for malformed values.
func (r ConsultationRecord) Time() time.Time {
	t, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
