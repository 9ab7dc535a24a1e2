package patient

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type VisitType string

const (
	VisitConsultation VisitType = "consultation"
	VisitFollowUp     VisitType = "follow_up"
	VisitEmergency    VisitType = "emergency"
	VisitRoutine      VisitType = "routine"
)

func (t VisitType) Valid() bool {
	switch t {
	case VisitConsultation, VisitFollowUp, VisitEmergency, VisitRoutine:
		return true
	}
	return false
}

type VisitStatus string

const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
)

// ConsultationStatus tracks the patient's assignment to a consultant, not the
// stepped consultation record.
type ConsultationStatus string

const (
	ConsultationPending    ConsultationStatus = "pending"
	ConsultationInProgress ConsultationStatus = "in_progress"
	ConsultationCompleted  ConsultationStatus = "completed"
	ConsultationCancelled  ConsultationStatus = "cancelled"
)

func (s ConsultationStatus) Valid() bool {
	switch s {
	case ConsultationPending, ConsultationInProgress, ConsultationCompleted, ConsultationCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue:
		return true
	}
	return false
}

type Patient struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	DateOfBirth    string  `json:"date_of_birth,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Weight         float64 `json:"weight,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Citizenship    string  `json:"citizenship,omitempty"`
	Country        string  `json:"country,omitempty"`
	Region         string  `json:"region,omitempty"`
	Address        string  `json:"address,omitempty"`
	MedicalHistory string  `json:"medical_history,omitempty"`
	Allergies      string  `json:"allergies,omitempty"`

	// Referral linkage: ReferrerID and ReferrerName are set only when
	// ReferralCode resolved to an existing patient.
	ReferrerID   string `json:"referrer_id,omitempty"`
	ReferrerName string `json:"referrer_name,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`
	// OwnReferralCode is the code this patient hands out to people they refer.
	OwnReferralCode string `json:"own_referral_code"`

	TotalPurchases int             `json:"total_purchases"`
	TotalReferrals int             `json:"total_referrals"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`

	ClinicID  string    `json:"clinic_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AssignedConsultantID   string             `json:"assigned_consultant_id,omitempty"`
	AssignedConsultantName string             `json:"assigned_consultant_name,omitempty"`
	ConsultationStatus     ConsultationStatus `json:"consultation_status,omitempty"`
	PaymentStatus          PaymentStatus      `json:"payment_status,omitempty"`
	ConsultationFee        *decimal.Decimal   `json:"consultation_fee,omitempty"`

	Visits []Visit `json:"visits"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// BMI is weight (kg) over height (m) squared, rounded to one decimal. ok is
// false when weight or height is missing.
func (p *Patient) BMI() (bmi float64, ok bool) {
	if p.Weight <= 0 || p.Height <= 0 {
		return 0, false
	}
	m := p.Height / 100
	return math.Round(p.Weight/(m*m)*10) / 10, true
}

func (p *Patient) clone() *Patient {
	cp := *p
	if p.ConsultationFee != nil {
		fee := *p.ConsultationFee
		cp.ConsultationFee = &fee
	}
	cp.Visits = make([]Visit, len(p.Visits))
	for i, v := range p.Visits {
		cp.Visits[i] = v
		cp.Visits[i].Prescriptions = append([]string(nil), v.Prescriptions...)
	}
	return &cp
}

type Visit struct {
	ID             string      `json:"id"`
	PatientID      string      `json:"patient_id"`
	VisitDate      time.Time   `json:"visit_date"`
	ConsultantID   string      `json:"consultant_id"`
	ConsultantName string      `json:"consultant_name"`
	VisitType      VisitType   `json:"visit_type"`
	Status         VisitStatus `json:"status"`
	Notes          string      `json:"notes,omitempty"`
	Prescriptions  []string    `json:"prescriptions,omitempty"`
}

// CreateInput is the intake form. Counters are not accepted; a new patient
// starts at zero.
type CreateInput struct {
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	DateOfBirth     string           `json:"date_of_birth"`
	Gender          string           `json:"gender"`
	Weight          float64          `json:"weight"`
	Height          float64          `json:"height"`
	Citizenship     string           `json:"citizenship"`
	Country         string           `json:"country"`
	Region          string           `json:"region"`
	Address         string           `json:"address"`
	MedicalHistory  string           `json:"medical_history"`
	Allergies       string           `json:"allergies"`
	ReferralCode    string           `json:"referral_code"`
	OwnReferralCode string           `json:"own_referral_code"`
	ClinicID        string           `json:"clinic_id"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
}

// Patch carries an update; nil fields are left unchanged.
type Patch struct {
	FirstName          *string             `json:"first_name"`
	LastName           *string             `json:"last_name"`
	Email              *string             `json:"email"`
	Phone              *string             `json:"phone"`
	DateOfBirth        *string             `json:"date_of_birth"`
	Gender             *string             `json:"gender"`
	Weight             *float64            `json:"weight"`
	Height             *float64            `json:"height"`
	Citizenship        *string             `json:"citizenship"`
	Country            *string             `json:"country"`
	Region             *string             `json:"region"`
	Address            *string             `json:"address"`
	MedicalHistory     *string             `json:"medical_history"`
	Allergies          *string             `json:"allergies"`
	ReferralCode       *string             `json:"referral_code"`
	ClinicID           *string             `json:"clinic_id"`
	TotalPurchases     *int                `json:"total_purchases"`
	TotalEarnings      *decimal.Decimal    `json:"total_earnings"`
	ConsultationFee    *decimal.Decimal    `json:"consultation_fee"`
	ConsultationStatus *ConsultationStatus `json:"consultation_status"`
	PaymentStatus      *PaymentStatus      `json:"payment_status"`
}

type VisitInput struct {
	VisitDate     time.Time `json:"visit_date"`
	ConsultantID  string    `json:"consultant_id"`
	VisitType     VisitType `json:"visit_type"`
	Notes         string    `json:"notes"`
	Prescriptions []string  `json:"prescriptions"`
}
