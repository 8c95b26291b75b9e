package viewstate_test

import (
	"testing"

	"github.com/google/uuid"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/viewstate"
)

func TestDefaults(t *testing.T) {
	s := viewstate.New().Snapshot()

	if s.View != viewstate.ViewForm {
		t.Errorf("expected form view, got %q", s.View)
	}
	if s.Language != consultation.LanguageEnglish {
		t.Errorf("expected en, got %q", s.Language)
	}
	if s.Theme != viewstate.ThemeDark {
		t.Errorf("expected dark theme, got %q", s.Theme)
	}
	if s.LastRecord != nil {
		t.Error("expected no record")
	}
}

func TestSelectDiagnosisWithoutRecordIsNoop(t *testing.T) {
	c := viewstate.New()
	if _, err := c.Select(viewstate.ViewLog); err != nil {
		t.Fatal(err)
	}

	changed, err := c.Select(viewstate.ViewDiagnosis)
	if err != nil {
		t.Fatal(err)
	}
	if changed || c.View() != viewstate.ViewLog {
		t.Fatalf("expected to stay on log, got %q (changed=%v)", c.View(), changed)
	}
}

func TestSelectUnknownView(t *testing.T) {
	c := viewstate.New()
	if _, err := c.Select("settings"); err == nil {
		t.Fatal("expected error for unknown view")
	}
	if c.View() != viewstate.ViewForm {
		t.Fatalf("view changed to %q", c.View())
	}
}

func TestConsultationFlow(t *testing.T) {
	c := viewstate.New()
	rec := consultation.ConsultationRecord{ID: uuid.New(), Patient: consultation.PatientInfo{Name: "Amina"}}

	c.CompleteConsultation(rec)
	s := c.Snapshot()
	if s.View != viewstate.ViewDiagnosis || s.LastRecord == nil || s.LastRecord.ID != rec.ID {
		t.Fatalf("expected diagnosis view with record, got %#v", s)
	}

	c.NewConsultation()
	if c.View() != viewstate.ViewForm {
		t.Fatalf("expected form view, got %q", c.View())
	}
	if c.Snapshot().LastRecord == nil {
		t.Fatal("new consultation must keep the last record")
	}

	changed, err := c.Select(viewstate.ViewDiagnosis)
	if err != nil || !changed {
		t.Fatalf("expected diagnosis view to be reachable again (changed=%v, err=%v)", changed, err)
	}

	next := consultation.ConsultationRecord{ID: uuid.New(), Patient: consultation.PatientInfo{Name: "Baraka"}}
	c.CompleteConsultation(next)
	if got := c.Snapshot().LastRecord; got.ID != next.ID {
		t.Fatalf("expected newest record, got %s", got.Patient.Name)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := viewstate.New()
	c.CompleteConsultation(consultation.ConsultationRecord{Patient: consultation.PatientInfo{Name: "Amina"}})

	s := c.Snapshot()
	s.LastRecord.Patient.Name = "changed"

	if c.Snapshot().LastRecord.Patient.Name != "Amina" {
		t.Fatal("snapshot shares memory with controller")
	}
}

func TestLanguageAndTheme(t *testing.T) {
	c := viewstate.New()

	if err := c.SetLanguage(consultation.LanguageSwahili); err != nil {
		t.Fatal(err)
	}
	if c.Language() != consultation.LanguageSwahili {
		t.Fatalf("expected sw, got %q", c.Language())
	}
	if err := c.SetLanguage("fr"); err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if c.Language() != consultation.LanguageSwahili {
		t.Fatal("failed SetLanguage changed the language")
	}

	if got := c.ToggleTheme(); got != viewstate.ThemeLight {
		t.Fatalf("expected light, got %q", got)
	}
	if got := c.ToggleTheme(); got != viewstate.ThemeDark {
		t.Fatalf("expected dark, got %q", got)
	}
}
