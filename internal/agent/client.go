package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medibot-afrika/internal/consultation"
)

const (
	DefaultDeepSeekURL   = "https://api.deepseek.com"
	DefaultDeepSeekModel = "deepseek-chat"
)

// DeepSeekClient asks an OpenAI compatible chat completion endpoint for a
// structured diagnosis.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewDeepSeekClient(apiKey, baseURL, model string) *DeepSeekClient {
	if baseURL == "" {
		baseURL = DefaultDeepSeekURL
	}
	if model == "" {
		model = DefaultDeepSeekModel
	}
	return &DeepSeekClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a clinical decision support assistant for community health workers in East Africa.
Given a patient's age, gender and symptoms, reply with a single JSON object and nothing else:
{"condition": string, "confidence": integer 0-100, "symptoms_analysis": string,
 "recommended_action": "local_treatment" | "refer_clinic" | "emergency",
 "urgency": "low" | "medium" | "high" | "emergency",
 "treatment_suggestions": [string]}
Write condition, symptoms_analysis and treatment_suggestions in %s. Keep the enum values in English.`

func languageName(lang consultation.Language) string {
	if lang == consultation.LanguageSwahili {
		return "Kiswahili"
	}
	return "English"
}

func (c *DeepSeekClient) Diagnose(ctx context.Context, patient consultation.PatientInfo, lang consultation.Language) (consultation.DiagnosisResult, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, languageName(lang))},
			{Role: "user", Content: fmt.Sprintf("Age: %d\nGender: %s\nSymptoms: %s", patient.Age, patient.Gender, patient.Symptoms)},
		},
		Temperature: 0.2,
	}
	reqBody.ResponseFormat.Type = "json_object"

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return consultation.DiagnosisResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return consultation.DiagnosisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return consultation.DiagnosisResult{}, fmt.Errorf("deepseek request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return consultation.DiagnosisResult{}, fmt.Errorf("deepseek API error: %s - %s", resp.Status, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return consultation.DiagnosisResult{}, fmt.Errorf("failed to decode deepseek response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return consultation.DiagnosisResult{}, fmt.Errorf("deepseek returned no choices")
	}

	return parseDiagnosis(chat.Choices[0].Message.Content)
}

// parseDiagnosis reads the model's JSON answer. Models sometimes wrap it in a
// markdown code fence.
func parseDiagnosis(content string) (consultation.DiagnosisResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var d consultation.DiagnosisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &d); err != nil {
		return consultation.DiagnosisResult{}, fmt.Errorf("%w: %v", consultation.ErrInvalidDiagnosis, err)
	}
	if d.TreatmentSuggestions == nil {
		d.TreatmentSuggestions = []string{}
	}
	if err := consultation.ValidateDiagnosis(d); err != nil {
		return consultation.DiagnosisResult{}, err
	}
	return d, nil
}
