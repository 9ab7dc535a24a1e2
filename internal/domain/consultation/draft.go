package consultation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

// NewDraft opens the form on step 1 with empty text fields.
func NewDraft(id string, date time.Time, fee decimal.Decimal) Draft {
	return Draft{
		ID:     id,
		Date:   date,
		Step:   FirstStep,
		Status: StatusForStep(FirstStep),
		Fee:    fee,
	}
}

// SaveStep stores the current step's fields without advancing.
func (d Draft) SaveStep(data StepData) (Draft, error) {
	if data.Fee != nil && data.Fee.IsNegative() {
		return d, apperr.NewValidation("fee", "fee must not be negative")
	}
	switch d.Step {
	case 1:
		d.Symptoms = data.Symptoms
	case 2:
		d.Diagnosis = data.Diagnosis
	case 3:
		d.Results = data.Results
	case 4:
		d.Treatment = data.Treatment
		d.Prescription = data.Prescription
	}
	if data.Notes != nil {
		d.Notes = *data.Notes
	}
	if data.Fee != nil {
		d.Fee = *data.Fee
	}
	return d, nil
}

// Advance moves to the next step. The last step has to be submitted instead.
func (d Draft) Advance() (Draft, error) {
	if d.Step >= LastStep {
		return d, fmt.Errorf("%w: draft is on the last step, submit it instead", apperr.ErrInvalidTransition)
	}
	d.Step++
	d.Status = StatusForStep(d.Step)
	return d, nil
}

func (d Draft) Back() (Draft, error) {
	if d.Step <= FirstStep {
		return d, fmt.Errorf("%w: draft is already on the first step", apperr.ErrInvalidTransition)
	}
	d.Step--
	d.Status = StatusForStep(d.Step)
	return d, nil
}

// Validate reports every required text field that is still blank.
func (d Draft) Validate() error {
	v := &apperr.ValidationError{}
	v.Required("symptoms", d.Symptoms)
	v.Required("diagnosis", d.Diagnosis)
	v.Required("treatment", d.Treatment)
	v.Required("prescription", d.Prescription)
	if d.Fee.IsNegative() {
		v.Add("fee", "fee must not be negative")
	}
	return v.Err()
}

// Finalize turns a valid draft into a step-4 consultation carrying status,
// which must be supplements, completed or cancelled.
// The results summary becomes the notes when no notes were written.
func (d Draft) Finalize(id string, status Status, now time.Time) (*Consultation, error) {
	if status == "" {
		status = StatusCompleted
	}
	switch status {
	case StatusSupplements, StatusCompleted, StatusCancelled:
	default:
		return nil, apperr.NewValidation("status", fmt.Sprintf("status %q cannot close a step-4 consultation", status))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	notes := d.Notes
	if notes == "" {
		notes = d.Results
	}
	return &Consultation{
		ID:             id,
		PatientID:      d.PatientID,
		PatientName:    d.PatientName,
		PatientType:    d.PatientType,
		ConsultantID:   d.ConsultantID,
		ConsultantName: d.ConsultantName,
		Date:           d.Date,
		Symptoms:       d.Symptoms,
		Diagnosis:      d.Diagnosis,
		Treatment:      d.Treatment,
		Prescription:   d.Prescription,
		Notes:          notes,
		Fee:            d.Fee,
		Status:         status,
		Step:           LastStep,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
