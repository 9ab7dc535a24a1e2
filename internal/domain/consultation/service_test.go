package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/domain/identity"
	"github.com/eternalbranch/clinic/internal/domain/patient"
	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type mockPatients map[string]*patient.Patient

func (m mockPatients) Get(_ context.Context, id string) (*patient.Patient, error) {
	p, ok := m[id]
	if !ok {
		return nil, apperr.NotFound("patient", id)
	}
	return p, nil
}

type mockConsultants map[string]*identity.Consultant

func (m mockConsultants) Consultant(_ context.Context, id string) (*identity.Consultant, bool) {
	c, ok := m[id]
	return c, ok
}

func newTestService() *Service {
	patients := mockPatients{
		"p1": {ID: "p1", FirstName: "Ann", LastName: "Lee"},
		"p2": {ID: "p2", FirstName: "Bob", LastName: "Stone", Visits: []patient.Visit{{ID: "v1"}}},
	}
	consultants := mockConsultants{
		"c1": {ID: "c1", Name: "Dr. Michael Chen", Specialty: "General Health", Available: true},
	}
	return NewService(NewMemRepo(), patients, consultants, decimal.NewFromInt(150), zerolog.Nop())
}

// submitFor walks a full draft for patientID and submits it.
func submitFor(t *testing.T, svc *Service, patientID, symptoms string) *Consultation {
	t.Helper()
	ctx := context.Background()
	d, err := svc.StartDraft(ctx, patientID, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, data := range []StepData{{Symptoms: symptoms}, {Diagnosis: "dx"}, {Results: "ok"}} {
		svc.SaveStep(ctx, d.ID, data)
		svc.Advance(ctx, d.ID)
	}
	svc.SaveStep(ctx, d.ID, StepData{Treatment: "rest", Prescription: "vitamin d"})
	c, err := svc.Submit(ctx, d.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestStartDraft(t *testing.T) {
	svc := newTestService()
	d, err := svc.StartDraft(context.Background(), "p1", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.PatientName != "Ann Lee" || d.ConsultantName != "Dr. Michael Chen" {
		t.Errorf("unexpected linkage %+v", d)
	}
	if d.PatientType != PatientNew {
		t.Errorf("expected new patient, got %s", d.PatientType)
	}
	if !d.Fee.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected default fee 150, got %s", d.Fee)
	}
}

func TestStartDraft_ExistingPatient(t *testing.T) {
	svc := newTestService()
	d, _ := svc.StartDraft(context.Background(), "p2", "c1")
	if d.PatientType != PatientExisting {
		t.Errorf("expected patient with visits to be existing, got %s", d.PatientType)
	}

	submitFor(t, svc, "p1", "cough")
	d, _ = svc.StartDraft(context.Background(), "p1", "c1")
	if d.PatientType != PatientExisting {
		t.Errorf("expected patient with a consultation to be existing, got %s", d.PatientType)
	}
}

func TestStartDraft_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.StartDraft(context.Background(), "missing", "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for patient, got %v", err)
	}
	if _, err := svc.StartDraft(context.Background(), "p1", "c9"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for consultant, got %v", err)
	}
}

func TestSubmit_RemovesDraft(t *testing.T) {
	svc := newTestService()
	c := submitFor(t, svc, "p1", "cough")
	if c.Status != StatusCompleted || c.Step != 4 {
		t.Errorf("expected completed on step 4, got %s %d", c.Status, c.Step)
	}
	stored, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Symptoms != "cough" {
		t.Errorf("expected cough, got %s", stored.Symptoms)
	}
}

func TestSubmit_ValidationKeepsDraft(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	d, _ := svc.StartDraft(ctx, "p1", "c1")

	if _, err := svc.Submit(ctx, d.ID, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.GetDraft(ctx, d.ID); err != nil {
		t.Errorf("expected draft to survive a failed submit, got %v", err)
	}
}

func TestAdvance_UnknownDraft(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Advance(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdvance_PastLastStep(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	d, _ := svc.StartDraft(ctx, "p1", "c1")
	for i := 0; i < 3; i++ {
		if _, err := svc.Advance(ctx, d.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.Advance(ctx, d.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	got, _ := svc.GetDraft(ctx, d.ID)
	if got.Step != 4 {
		t.Errorf("expected draft to stay on step 4, got %d", got.Step)
	}
}

func TestDiscardDraft(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	d, _ := svc.StartDraft(ctx, "p1", "c1")
	if err := svc.DiscardDraft(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DiscardDraft(ctx, d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second discard, got %v", err)
	}
}

func TestUpdateStatus_Permissive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	c := submitFor(t, svc, "p1", "cough")

	got, err := svc.UpdateStatus(ctx, c.ID, StatusDiagnosis)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusDiagnosis || got.Step != 2 {
		t.Errorf("expected diagnosis on step 2, got %s %d", got.Status, got.Step)
	}

	got, _ = svc.UpdateStatus(ctx, c.ID, StatusCancelled)
	if got.Status != StatusCancelled || got.Step != 2 {
		t.Errorf("expected cancelled keeping step 2, got %s %d", got.Status, got.Step)
	}

	if _, err := svc.UpdateStatus(ctx, c.ID, Status("archived")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", StatusPending); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_BumpsUpdatedAt(t *testing.T) {
	svc := newTestService()
	c := submitFor(t, svc, "p1", "cough")
	svc.now = func() time.Time { return c.UpdatedAt.Add(time.Hour) }

	got, _ := svc.UpdateStatus(context.Background(), c.ID, StatusResults)
	if !got.UpdatedAt.After(c.UpdatedAt) {
		t.Error("expected updatedAt to move forward")
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Error("expected createdAt to be preserved")
	}
}

func TestReschedule(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	c := submitFor(t, svc, "p1", "cough")

	if _, err := svc.Reschedule(ctx, c.ID); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("expected completed consultation not to be reschedulable, got %v", err)
	}

	svc.UpdateStatus(ctx, c.ID, StatusCancelled)
	got, err := svc.Reschedule(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPending || got.Step != 1 {
		t.Errorf("expected pending on step 1, got %s %d", got.Status, got.Step)
	}
}

func TestList_SearchAndOrder(t *testing.T) {
	svc := newTestService()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first := submitFor(t, svc, "p1", "headache")
	svc.now = func() time.Time { return base.Add(time.Hour) }
	second := submitFor(t, svc, "p2", "back pain")

	all := svc.List(context.Background(), "")
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d results", len(all))
	}

	for _, term := range []string{"HEADACHE", "ann", "lee"} {
		got := svc.List(context.Background(), term)
		if len(got) != 1 || got[0].ID != first.ID {
			t.Errorf("search(%q): expected the headache consultation", term)
		}
	}
	if got := svc.List(context.Background(), "dx"); len(got) != 2 {
		t.Errorf("expected diagnosis search to match both, got %d", len(got))
	}
}

func TestImport(t *testing.T) {
	svc := newTestService()
	c := &Consultation{PatientID: "p1", PatientName: "Ann Lee", Status: StatusResults, Fee: decimal.NewFromInt(150)}
	if err := svc.Import(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" || c.Step != 3 {
		t.Errorf("expected id and step 3, got %q %d", c.ID, c.Step)
	}
	if err := svc.Import(context.Background(), &Consultation{Status: "bogus"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
