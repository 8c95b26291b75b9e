package consultation

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionInProgress is returned when a form submits again before the
	// previous consultation has finished.
	ErrSubmissionInProgress = errors.New("consultation already in progress")
	ErrInvalidDiagnosis     = errors.New("invalid diagnosis")
)

// Field names reported by ValidationError, in validation order.
const (
	FieldName     = "name"
	FieldAge      = "age"
	FieldGender   = "gender"
	FieldSymptoms = "symptoms"
)

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PersistenceWarning reports that a consultation succeeded but could not be
// written to the history log.
type PersistenceWarning struct {
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("consultation not saved to history: %v", w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}
