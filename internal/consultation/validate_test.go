package consultation_test

import (
	"errors"
	"testing"

	"medibot-afrika/internal/consultation"
)

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name      string
		in        consultation.FormInput
		wantField string
	}{
		{"all empty", consultation.FormInput{}, consultation.FieldName},
		{"whitespace name", consultation.FormInput{Name: "   ", Age: "3", Gender: "male", Symptoms: "x"}, consultation.FieldName},
		{"missing age", consultation.FormInput{Name: "Amina"}, consultation.FieldAge},
		{"age not a number", consultation.FormInput{Name: "Amina", Age: "thirty", Gender: "female", Symptoms: "x"}, consultation.FieldAge},
		{"age too high", consultation.FormInput{Name: "Amina", Age: "121", Gender: "female", Symptoms: "x"}, consultation.FieldAge},
		{"age negative", consultation.FormInput{Name: "Amina", Age: "-1", Gender: "female", Symptoms: "x"}, consultation.FieldAge},
		{"missing gender", consultation.FormInput{Name: "Amina", Age: "34"}, consultation.FieldGender},
		{"unknown gender", consultation.FormInput{Name: "Amina", Age: "34", Gender: "unknown", Symptoms: "x"}, consultation.FieldGender},
		{"missing symptoms", consultation.FormInput{Name: "Amina", Age: "34", Gender: "female", Symptoms: "\n\t"}, consultation.FieldSymptoms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := consultation.Validate(tt.in)
			var vErr *consultation.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q (%s)", tt.wantField, vErr.Field, vErr.Reason)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name string
		in   consultation.FormInput
		want consultation.PatientInfo
	}{
		{
			"trims values",
			consultation.FormInput{Name: " Amina ", Age: " 34 ", Gender: "Female", Symptoms: " cough, fever "},
			consultation.PatientInfo{Name: "Amina", Age: 34, Gender: consultation.GenderFemale, Symptoms: "cough, fever"},
		},
		{
			"newborn",
			consultation.FormInput{Name: "Baby", Age: "0", Gender: "other", Symptoms: "jaundice"},
			consultation.PatientInfo{Name: "Baby", Age: 0, Gender: consultation.GenderOther, Symptoms: "jaundice"},
		},
		{
			"upper bound",
			consultation.FormInput{Name: "Bibi", Age: "120", Gender: "male", Symptoms: "fatigue"},
			consultation.PatientInfo{Name: "Bibi", Age: 120, Gender: consultation.GenderMale, Symptoms: "fatigue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := consultation.Validate(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestValidateDiagnosis(t *testing.T) {
	valid := consultation.DiagnosisResult{
		Condition:         "Upper Respiratory Infection",
		Confidence:        85,
		RecommendedAction: consultation.ActionLocalTreatment,
		Urgency:           consultation.UrgencyLow,
	}
	if err := consultation.ValidateDiagnosis(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*consultation.DiagnosisResult)
	}{
		{"empty condition", func(d *consultation.DiagnosisResult) { d.Condition = " " }},
		{"confidence above 100", func(d *consultation.DiagnosisResult) { d.Confidence = 101 }},
		{"confidence below 0", func(d *consultation.DiagnosisResult) { d.Confidence = -5 }},
		{"untranslated action", func(d *consultation.DiagnosisResult) { d.RecommendedAction = "matibabu_ya_karibu" }},
		{"unknown urgency", func(d *consultation.DiagnosisResult) { d.Urgency = "critical" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			if err := consultation.ValidateDiagnosis(d); !errors.Is(err, consultation.ErrInvalidDiagnosis) {
				t.Fatalf("expected ErrInvalidDiagnosis, got %v", err)
			}
		})
	}
}
