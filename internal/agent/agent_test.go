package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medibot-afrika/internal/agent"
	"medibot-afrika/internal/consultation"
)

var amina = consultation.PatientInfo{
	Name:     "Amina",
	Age:      34,
	Gender:   consultation.GenderFemale,
	Symptoms: "cough, fever",
}

func TestMockProviderLanguages(t *testing.T) {
	mock := agent.NewMockProvider(0)

	for _, lang := range []consultation.Language{consultation.LanguageEnglish, consultation.LanguageSwahili} {
		t.Run(string(lang), func(t *testing.T) {
			d, err := mock.Diagnose(context.Background(), amina, lang)
			if err != nil {
				t.Fatalf("Diagnose failed: %v", err)
			}
			if err := consultation.ValidateDiagnosis(d); err != nil {
				t.Fatalf("mock produced invalid diagnosis: %v", err)
			}
			if d.RecommendedAction != consultation.ActionLocalTreatment {
				t.Fatalf("expected local_treatment in every language, got %q", d.RecommendedAction)
			}
			if len(d.TreatmentSuggestions) != 3 {
				t.Fatalf("expected 3 suggestions, got %d", len(d.TreatmentSuggestions))
			}
		})
	}

	en, _ := mock.Diagnose(context.Background(), amina, consultation.LanguageEnglish)
	sw, _ := mock.Diagnose(context.Background(), amina, consultation.LanguageSwahili)
	if en.Condition == sw.Condition {
		t.Fatal("expected localized condition")
	}
}

func TestMockProviderHonoursCancellation(t *testing.T) {
	mock := agent.NewMockProvider(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Diagnose(ctx, amina, consultation.LanguageEnglish)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if status != http.StatusOK {
			http.Error(w, "boom", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestDeepSeekClientDiagnose(t *testing.T) {
	content := "```json\n" + `{"condition":"Malaria","confidence":70,"symptoms_analysis":"fever pattern",
		"recommended_action":"refer_clinic","urgency":"high","treatment_suggestions":["Rapid diagnostic test"]}` + "\n```"
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	client := agent.NewDeepSeekClient("test-key", srv.URL, "")
	d, err := client.Diagnose(context.Background(), amina, consultation.LanguageEnglish)
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if d.Condition != "Malaria" || d.Urgency != consultation.UrgencyHigh || d.RecommendedAction != consultation.ActionReferClinic {
		t.Fatalf("unexpected diagnosis %#v", d)
	}
}

func TestDeepSeekClientRejectsUnknownAction(t *testing.T) {
	content := `{"condition":"Homa","confidence":85,"symptoms_analysis":"x",
		"recommended_action":"matibabu_ya_karibu","urgency":"low","treatment_suggestions":[]}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	client := agent.NewDeepSeekClient("test-key", srv.URL, "")
	_, err := client.Diagnose(context.Background(), amina, consultation.LanguageSwahili)
	if !errors.Is(err, consultation.ErrInvalidDiagnosis) {
		t.Fatalf("expected ErrInvalidDiagnosis, got %v", err)
	}
}

func TestDeepSeekClientHTTPError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	client := agent.NewDeepSeekClient("test-key", srv.URL, "")
	_, err := client.Diagnose(context.Background(), amina, consultation.LanguageEnglish)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected API error with status, got %v", err)
	}
}
