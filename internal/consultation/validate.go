package consultation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FormInput holds the raw values typed into the intake form.
type FormInput struct {
	Name     string
	Age      string
	Gender   string
	Symptoms string
}

// Validate checks the form one field at a time and stops at the first failure,
// so an empty form always reports the name.
func Validate(in FormInput) (PatientInfo, error) {
	name := strings.TrimSpace(in.Name)
	if err := validate.Var(name, "required"); err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldName, Reason: "patient name is required"}
	}

	ageStr := strings.TrimSpace(in.Age)
	if err := validate.Var(ageStr, "required"); err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldAge, Reason: "patient age is required"}
	}
	age, err := strconv.Atoi(ageStr)
	if err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldAge, Reason: "patient age must be a whole number"}
	}
	if err := validate.Var(age, "gte=0,lte=120"); err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldAge, Reason: "patient age must be between 0 and 120"}
	}

	gender := Gender(strings.ToLower(strings.TrimSpace(in.Gender)))
	if err := validate.Var(string(gender), "required"); err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldGender, Reason: "patient gender is required"}
	}
	if !gender.Valid() {
		return PatientInfo{}, &ValidationError{Field: FieldGender, Reason: fmt.Sprintf("unknown gender %q", in.Gender)}
	}

	symptoms := strings.TrimSpace(in.Symptoms)
	if err := validate.Var(symptoms, "required"); err != nil {
		return PatientInfo{}, &ValidationError{Field: FieldSymptoms, Reason: "symptoms description is required"}
	}

	return PatientInfo{
		Name:     name,
		Age:      age,
		Gender:   gender,
		Symptoms: symptoms,
	}, nil
}

// ValidateDiagnosis rejects provider output that falls outside the closed
// enums or the confidence range.
func ValidateDiagnosis(d DiagnosisResult) error {
	if strings.TrimSpace(d.Condition) == "" {
		return fmt.Errorf("%w: empty condition", ErrInvalidDiagnosis)
	}
	if err := validate.Var(d.Confidence, "gte=0,lte=100"); err != nil {
		return fmt.Errorf("%w: confidence %d out of range", ErrInvalidDiagnosis, d.Confidence)
	}
	if !d.RecommendedAction.Valid() {
		return fmt.Errorf("%w: unknown recommended action %q", ErrInvalidDiagnosis, d.RecommendedAction)
	}
	if !d.Urgency.Valid() {
		return fmt.Errorf("%w: unknown urgency %q", ErrInvalidDiagnosis, d.Urgency)
	}
	return nil
}
