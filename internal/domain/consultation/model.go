package consultation

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusDiagnosis   Status = "diagnosis"
	StatusResults     Status = "results"
	StatusSupplements Status = "supplements"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDiagnosis, StatusResults, StatusSupplements, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const (
	FirstStep = 1
	LastStep  = 4
)

// stepStatus maps each form step to the status it stands for.
var stepStatus = map[int]Status{
	1: StatusPending,
	2: StatusDiagnosis,
	3: StatusResults,
	4: StatusSupplements,
}

// StatusForStep returns the status a draft carries while on step.
func StatusForStep(step int) Status {
	return stepStatus[step]
}

// StepForStatus returns the step a status implies. Cancelled has no step of
// its own; ok is false and the caller keeps the step it had.
func StepForStatus(s Status) (step int, ok bool) {
	switch s {
	case StatusPending:
		return 1, true
	case StatusDiagnosis:
		return 2, true
	case StatusResults:
		return 3, true
	case StatusSupplements, StatusCompleted:
		return 4, true
	}
	return 0, false
}

type PatientType string

const (
	PatientNew      PatientType = "new"
	PatientExisting PatientType = "existing"
)

type Consultation struct {
	ID             string          `json:"id"`
	PatientID      string          `json:"patient_id"`
	PatientName    string          `json:"patient_name"`
	PatientType    PatientType     `json:"patient_type"`
	ConsultantID   string          `json:"consultant_id"`
	ConsultantName string          `json:"consultant_name"`
	Date           time.Time       `json:"date"`
	Symptoms       string          `json:"symptoms"`
	Diagnosis      string          `json:"diagnosis"`
	Treatment      string          `json:"treatment"`
	Prescription   string          `json:"prescription"`
	Notes          string          `json:"notes,omitempty"`
	Fee            decimal.Decimal `json:"fee"`
	Status         Status          `json:"status"`
	Step           int             `json:"step"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Draft is a consultation still being filled in through the stepped form.
type Draft struct {
	ID             string          `json:"id"`
	PatientID      string          `json:"patient_id"`
	PatientName    string          `json:"patient_name"`
	PatientType    PatientType     `json:"patient_type"`
	ConsultantID   string          `json:"consultant_id"`
	ConsultantName string          `json:"consultant_name"`
	Date           time.Time       `json:"date"`
	Step           int             `json:"step"`
	Status         Status          `json:"status"`
	Symptoms       string          `json:"symptoms"`
	Diagnosis      string          `json:"diagnosis"`
	Results        string          `json:"results"`
	Treatment      string          `json:"treatment"`
	Prescription   string          `json:"prescription"`
	Notes          string          `json:"notes"`
	Fee            decimal.Decimal `json:"fee"`
}

// StepData is what one form step submits. Only the fields owned by the
// draft's current step are taken; Notes and Fee are accepted on any step.
type StepData struct {
	Symptoms     string           `json:"symptoms"`
	Diagnosis    string           `json:"diagnosis"`
	Results      string           `json:"results"`
	Treatment    string           `json:"treatment"`
	Prescription string           `json:"prescription"`
	Notes        *string          `json:"notes"`
	Fee          *decimal.Decimal `json:"fee"`
}
