package agent

import (
	"context"
	"time"

	"medibot-afrika/internal/consultation"
)

const DefaultMockDelay = 2 * time.Second

// MockProvider answers every consultation with the same upper respiratory
// infection diagnosis after a fixed delay.
type MockProvider struct {
	delay time.Duration
}

func NewMockProvider(delay time.Duration) *MockProvider {
	if delay < 0 {
		delay = 0
	}
	return &MockProvider{delay: delay}
}

func (m *MockProvider) Diagnose(ctx context.Context, _ consultation.PatientInfo, lang consultation.Language) (consultation.DiagnosisResult, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return consultation.DiagnosisResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if lang == consultation.LanguageSwahili {
		return consultation.DiagnosisResult{
			Condition:         "Uambukizi wa Njia za Upumuzi wa Juu",
			Confidence:        85,
			SymptomsAnalysis:  "Kulingana na dalili zilizoripotiwa, mgonjwa anaweza kuwa na homa ya kawaida au uambukizi wa njia za upumuzi wa juu.",
			RecommendedAction: consultation.ActionLocalTreatment,
			Urgency:           consultation.UrgencyLow,
			TreatmentSuggestions: []string{
				"Pumziko na vinywaji",
				"Paracetamol kwa homa",
				"Fuatilia kwa masaa 48",
			},
		}, nil
	}

	return consultation.DiagnosisResult{
		Condition:         "Upper Respiratory Infection",
		Confidence:        85,
		SymptomsAnalysis:  "Based on the reported symptoms, the patient likely has a common cold or upper respiratory infection.",
		RecommendedAction: consultation.ActionLocalTreatment,
		Urgency:           consultation.UrgencyLow,
		TreatmentSuggestions: []string{
			"Rest and fluids",
			"Paracetamol for fever",
			"Monitor for 48 hours",
		},
	}, nil
}
