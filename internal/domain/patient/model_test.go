package patient

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBMI(t *testing.T) {
	p := &Patient{Weight: 70, Height: 175}
	bmi, ok := p.BMI()
	if !ok {
		t.Fatal("expected BMI to be available")
	}
	if bmi != 22.9 {
		t.Errorf("expected 22.9, got %v", bmi)
	}
}

func TestBMI_Unavailable(t *testing.T) {
	for _, p := range []*Patient{{Weight: 70}, {Height: 180}, {}} {
		if _, ok := p.BMI(); ok {
			t.Errorf("expected BMI unavailable for weight=%v height=%v", p.Weight, p.Height)
		}
	}
}

func TestClone_IsDeep(t *testing.T) {
	fee := decimal.NewFromInt(150)
	p := &Patient{ID: "p1", ConsultationFee: &fee, Visits: []Visit{{ID: "v1", Prescriptions: []string{"Omega-3"}}}}
	cp := p.clone()

	*cp.ConsultationFee = decimal.NewFromInt(1)
	cp.Visits[0].Status = VisitCancelled
	cp.Visits[0].Prescriptions[0] = "changed"

	if !p.ConsultationFee.Equal(decimal.NewFromInt(150)) {
		t.Error("expected original fee to be untouched")
	}
	if p.Visits[0].Status != "" || p.Visits[0].Prescriptions[0] != "Omega-3" {
		t.Error("expected original visits to be untouched")
	}
}

func TestEnumValidity(t *testing.T) {
	if !VisitFollowUp.Valid() || VisitType("walk_in").Valid() {
		t.Error("unexpected VisitType validity")
	}
	if !PaymentOverdue.Valid() || PaymentStatus("waived").Valid() {
		t.Error("unexpected PaymentStatus validity")
	}
	if !ConsultationInProgress.Valid() || ConsultationStatus("diagnosis").Valid() {
		t.Error("unexpected ConsultationStatus validity")
	}
}
