package consultation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"medibot-afrika/internal/platform/logging"
	"medibot-afrika/internal/platform/metrics"
)

// DiagnosisProvider turns patient information into a diagnosis. The mock
// waits a fixed delay; a real inference client may take any amount of time.
type DiagnosisProvider interface {
	Diagnose(ctx context.Context, patient PatientInfo, lang Language) (DiagnosisResult, error)
}

// HistoryStore receives every completed consultation.
type HistoryStore interface {
	Append(ctx context.Context, record ConsultationRecord) error
}

// ReferralNotifier tells a clinic about patients being referred to it.
type ReferralNotifier interface {
	NotifyReferral(ctx context.Context, record ConsultationRecord) error
}

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
)

// Outcome is a successful submission. PersistenceWarning is set when the
// record could not be added to the history log.
type Outcome struct {
	Record             ConsultationRecord
	PersistenceWarning *PersistenceWarning
}

// Engine runs consultations for a single intake form. Only one submission may
// be processing at a time.
type Engine struct {
	provider DiagnosisProvider
	history  HistoryStore
	notifier ReferralNotifier
	now      func() time.Time
	newID    func() uuid.UUID

	busy          atomic.Bool
	onStateChange func(State)
}

type Option func(*Engine)

// WithNotifier sends referral notifications after each referring diagnosis.
func WithNotifier(n ReferralNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStateObserver is called on every Idle/Processing transition, which lets
// a caller show an in-progress indicator.
func WithStateObserver(fn func(State)) Option {
	return func(e *Engine) { e.onStateChange = fn }
}

func NewEngine(provider DiagnosisProvider, history HistoryStore, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		history:  history,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() State {
	if e.busy.Load() {
		return StateProcessing
	}
	return StateIdle
}

// Submit validates the form, asks the provider for a diagnosis and appends the
// resulting record to history. A history failure does not fail the submission;
// it is reported through Outcome.PersistenceWarning instead.
func (e *Engine) Submit(ctx context.Context, in FormInput, lang Language) (*Outcome, error) {
	log := logging.FromContext(ctx)

	patient, err := Validate(in)
	if err != nil {
		metrics.RecordRejection("validation")
		return nil, err
	}
	if !lang.Valid() {
		lang = LanguageEnglish
	}

	if !e.busy.CompareAndSwap(false, true) {
		metrics.RecordRejection("in_progress")
		log.Warn("submission rejected, consultation already in progress")
		return nil, ErrSubmissionInProgress
	}
	e.notify(StateProcessing)
	defer func() {
		e.busy.Store(false)
		e.notify(StateIdle)
	}()

	log = log.With("patient_age", patient.Age, "language", lang)
	log.Info("starting consultation")

	started := time.Now()
	diagnosis, err := e.provider.Diagnose(ctx, patient, lang)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.RecordRejection("cancelled")
		} else {
			metrics.RecordRejection("provider")
		}
		log.Error("diagnosis failed", "error", err)
		return nil, fmt.Errorf("diagnosis failed: %w", err)
	}
	if err := ValidateDiagnosis(diagnosis); err != nil {
		metrics.RecordRejection("provider")
		log.Error("provider returned invalid diagnosis", "error", err)
		return nil, err
	}

	// An abandoned submission must not leave a record behind.
	if err := ctx.Err(); err != nil {
		metrics.RecordRejection("cancelled")
		return nil, fmt.Errorf("consultation cancelled: %w", err)
	}

	record := ConsultationRecord{
		ID:        e.newID(),
		Patient:   patient,
		Diagnosis: diagnosis,
		Timestamp: FormatTimestamp(e.now()),
	}
	metrics.RecordConsultation(string(diagnosis.Urgency), string(diagnosis.RecommendedAction), elapsed)

	out := &Outcome{Record: record}
	if err := e.history.Append(ctx, record); err != nil {
		out.PersistenceWarning = &PersistenceWarning{Err: err}
		log.Warn("failed to save consultation to history", "record_id", record.ID, "error", err)
	}

	if e.notifier != nil && diagnosis.RecommendedAction.IsReferral() {
		if err := e.notifier.NotifyReferral(ctx, record); err != nil {
			log.Warn("failed to notify clinic", "record_id", record.ID, "error", err)
		}
	}

	log.Info("consultation completed",
		"record_id", record.ID,
		"urgency", diagnosis.Urgency,
		"action", diagnosis.RecommendedAction,
	)
	return out, nil
}

func (e *Engine) notify(s State) {
	if e.onStateChange != nil {
		e.onStateChange(s)
	}
}
