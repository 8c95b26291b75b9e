package history_test

import (
	"reflect"
	"testing"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/history"
)

func sampleLog() []consultation.ConsultationRecord {
	mk := func(name, condition string, urgency consultation.Urgency) consultation.ConsultationRecord {
		r := newRecord(0)
		r.Patient.Name = name
		r.Diagnosis.Condition = condition
		r.Diagnosis.Urgency = urgency
		return r
	}
	return []consultation.ConsultationRecord{
		mk("Amina Said", "Upper Respiratory Infection", consultation.UrgencyLow),
		mk("Baraka Otieno", "Malaria", consultation.UrgencyHigh),
		mk("Neema", "Severe Dehydration", consultation.UrgencyEmergency),
		mk("Juma", "Malaria", consultation.UrgencyLow),
	}
}

func TestQuery(t *testing.T) {
	records := sampleLog()

	tests := []struct {
		name   string
		search string
		filter history.UrgencyFilter
		want   []string
	}{
		{"everything", "", history.FilterAll, []string{"Amina Said", "Baraka Otieno", "Neema", "Juma"}},
		{"name case-insensitive", "amina", history.FilterAll, []string{"Amina Said"}},
		{"condition substring", "MALAR", history.FilterAll, []string{"Baraka Otieno", "Juma"}},
		{"urgency only", "", history.UrgencyFilter(consultation.UrgencyLow), []string{"Amina Said", "Juma"}},
		{"both predicates", "malaria", history.UrgencyFilter(consultation.UrgencyLow), []string{"Juma"}},
		{"no match", "Zzz", history.FilterAll, []string{}},
		{"urgency with no records", "", history.UrgencyFilter(consultation.UrgencyMedium), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := history.Query(records, tt.search, tt.filter)
			if got == nil {
				t.Fatal("Query returned nil")
			}
			var gotNames []string
			for _, r := range got {
				gotNames = append(gotNames, r.Patient.Name)
			}
			if len(gotNames) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, gotNames)
			}
			for i := range gotNames {
				if gotNames[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, gotNames)
				}
			}
		})
	}
}

func TestQueryIsPure(t *testing.T) {
	records := sampleLog()
	before := sampleLog()
	for i := range before {
		before[i].ID = records[i].ID
	}

	first := history.Query(records, "a", history.FilterAll)
	second := history.Query(records, "a", history.FilterAll)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("Query is not deterministic")
	}
	if !reflect.DeepEqual(records, before) {
		t.Fatal("Query modified its input")
	}
}

func TestParseUrgencyFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    history.UrgencyFilter
		wantErr bool
	}{
		{"", history.FilterAll, false},
		{"all", history.FilterAll, false},
		{"High", history.UrgencyFilter("high"), false},
		{"emergency", history.UrgencyFilter("emergency"), false},
		{"critical", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := history.ParseUrgencyFilter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
