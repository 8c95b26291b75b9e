package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"

	"medibot-afrika/internal/consultation"
	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/platform/metrics"
)

var ErrFontUnavailable = errors.New("no usable font for PDF")

// DefaultFontPaths are the usual DejaVuSans locations on Alpine and Debian.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Sender delivers referral slips to a clinic chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

type Service struct {
	sender    Sender
	chatID    int64
	fontPaths []string
	lang      consultation.Language
}

// NewService builds referral slips in lang. sender may be nil when slips are
// only downloaded, never pushed to a clinic.
func NewService(sender Sender, clinicChatID int64, fontPaths []string, lang consultation.Language) *Service {
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	if !lang.Valid() {
		lang = consultation.LanguageEnglish
	}
	return &Service{
		sender:    sender,
		chatID:    clinicChatID,
		fontPaths: fontPaths,
		lang:      lang,
	}
}

// NotifyReferral sends a text summary of the referral and then the PDF slip.
func (s *Service) NotifyReferral(ctx context.Context, rec consultation.ConsultationRecord) error {
	if s.sender == nil {
		return nil
	}
	log := logging.FromContext(ctx).With("record_id", rec.ID, "chat_id", s.chatID)

	if err := s.sender.SendMessage(s.chatID, Summary(rec, s.lang)); err != nil {
		metrics.RecordReferralNotification(false)
		return fmt.Errorf("failed to send referral message: %w", err)
	}
	metrics.RecordReferralNotification(true)

	pdf, err := s.ReferralPDF(rec)
	if err != nil {
		return err
	}
	if err := s.sender.SendDocument(s.chatID, pdf, FileName(rec)); err != nil {
		return fmt.Errorf("failed to send referral slip: %w", err)
	}
	log.Info("referral slip sent")
	return nil
}

func FileName(rec consultation.ConsultationRecord) string {
	return fmt.Sprintf("referral_%s.pdf", rec.ID.String())
}

// Summary is the plain text version of the referral slip.
func Summary(rec consultation.ConsultationRecord, lang consultation.Language) string {
	l := labelsFor(lang)
	d := rec.Diagnosis

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", l.title, l.actions[d.RecommendedAction])
	fmt.Fprintf(&b, "%s: %s, %d, %s\n", l.patient, rec.Patient.Name, rec.Patient.Age, rec.Patient.Gender)
	fmt.Fprintf(&b, "%s: %s\n", l.symptoms, rec.Patient.Symptoms)
	fmt.Fprintf(&b, "%s: %s (%s %d%%)\n", l.diagnosis, d.Condition, l.confidence, d.Confidence)
	fmt.Fprintf(&b, "%s: %s\n", l.urgency, l.urgencies[d.Urgency])
	fmt.Fprintf(&b, "%s: %s", l.time, rec.Timestamp)
	return b.String()
}

// ReferralPDF renders a one page referral slip.
func (s *Service) ReferralPDF(rec consultation.ConsultationRecord) ([]byte, error) {
	l := labelsFor(s.lang)

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	// DejaVuSans covers the accented names community workers type in
	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("%w: %v", ErrFontUnavailable, fontErr)
	}

	write := func(size float64, text string, gap float64) error {
		if err := pdf.SetFont("DejaVu", "", size); err != nil {
			return err
		}
		lines, err := pdf.SplitText(text, 500)
		if err != nil {
			lines = []string{text}
		}
		for _, line := range lines {
			if err := pdf.Cell(nil, line); err != nil {
				return err
			}
			pdf.Br(size + 2)
		}
		pdf.Br(gap)
		return nil
	}

	d := rec.Diagnosis
	sections := []struct {
		size float64
		text string
		gap  float64
	}{
		{20, l.title, 10},
		{12, fmt.Sprintf("%s: %s", l.time, rec.Timestamp), 2},
		{12, fmt.Sprintf("%s: %s", l.action, l.actions[d.RecommendedAction]), 2},
		{12, fmt.Sprintf("%s: %s", l.urgency, l.urgencies[d.Urgency]), 12},
		{14, l.patient, 4},
		{11, fmt.Sprintf("%s, %d, %s", rec.Patient.Name, rec.Patient.Age, rec.Patient.Gender), 2},
		{11, fmt.Sprintf("%s: %s", l.symptoms, rec.Patient.Symptoms), 12},
		{14, l.diagnosis, 4},
		{11, fmt.Sprintf("%s (%s %d%%)", d.Condition, l.confidence, d.Confidence), 2},
		{11, d.SymptomsAnalysis, 12},
	}
	for _, sec := range sections {
		if sec.text == "" {
			continue
		}
		if err := write(sec.size, sec.text, sec.gap); err != nil {
			return nil, fmt.Errorf("failed to render PDF: %w", err)
		}
	}

	if len(d.TreatmentSuggestions) > 0 {
		if err := write(14, l.treatment, 4); err != nil {
			return nil, fmt.Errorf("failed to render PDF: %w", err)
		}
		for _, t := range d.TreatmentSuggestions {
			if err := write(11, "- "+t, 0); err != nil {
				return nil, fmt.Errorf("failed to render PDF: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

type labels struct {
	title, time, action, urgency, patient, symptoms string
	diagnosis, confidence, treatment                string
	actions                                         map[consultation.RecommendedAction]string
	urgencies                                       map[consultation.Urgency]string
}

func labelsFor(lang consultation.Language) labels {
	if lang == consultation.LanguageSwahili {
		return labels{
			title:      "Rufaa ya Mgonjwa",
			time:       "Muda wa Ushauri",
			action:     "Kitendo",
			urgency:    "Kiwango cha Haraka",
			patient:    "Taarifa za Mgonjwa",
			symptoms:   "Dalili",
			diagnosis:  "Utambuzi Unaowezekana",
			confidence: "Uhakika",
			treatment:  "Mapendekezo ya Matibabu",
			actions: map[consultation.RecommendedAction]string{
				consultation.ActionLocalTreatment: "Tibu Hapa",
				consultation.ActionReferClinic:    "Peleka Kliniki",
				consultation.ActionEmergency:      "Rufaa ya Haraka",
			},
			urgencies: map[consultation.Urgency]string{
				consultation.UrgencyLow:       "Chini",
				consultation.UrgencyMedium:    "Wastani",
				consultation.UrgencyHigh:      "Juu",
				consultation.UrgencyEmergency: "Dharura",
			},
		}
	}
	return labels{
		title:      "Patient Referral",
		time:       "Consultation Time",
		action:     "Action",
		urgency:    "Urgency Level",
		patient:    "Patient Information",
		symptoms:   "Symptoms",
		diagnosis:  "Possible Diagnosis",
		confidence: "Confidence",
		treatment:  "Treatment Suggestions",
		actions: map[consultation.RecommendedAction]string{
			consultation.ActionLocalTreatment: "Treat Locally",
			consultation.ActionReferClinic:    "Refer to Clinic",
			consultation.ActionEmergency:      "Emergency Referral",
		},
		urgencies: map[consultation.Urgency]string{
			consultation.UrgencyLow:       "Low",
			consultation.UrgencyMedium:    "Medium",
			consultation.UrgencyHigh:      "High",
			consultation.UrgencyEmergency: "Emergency",
		},
	}
}
