// Package seed builds demo data for the staff console. Generate produces a
// reproducible dataset for a fixed seed and Load writes it, together with the
// console's reference fixtures, through the domain services.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/domain/consultation"
	"github.com/eternalbranch/clinic/internal/domain/identity"
	"github.com/eternalbranch/clinic/internal/domain/inventory"
	"github.com/eternalbranch/clinic/internal/domain/patient"
	"github.com/eternalbranch/clinic/internal/domain/prescription"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config controls the volume of generated data.
type Config struct {
	Patients int `json:"patients"`
	// Prescriptions is the number of prescriptions written per generated patient.
	Prescriptions int      `json:"prescriptions"`
	ConsultantIDs []string `json:"consultant_ids"`
	Seed          int64    `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Patients:      25,
		Prescriptions: 1,
		ConsultantIDs: []string{"c1", "c2", "c4"},
	}
}

// ---------------------------------------------------------------------------
// Dataset
// ---------------------------------------------------------------------------

// PatientRecord is one generated patient and the history written for them.
type PatientRecord struct {
	Input         patient.CreateInput  `json:"input"`
	ConsultantID  string               `json:"consultant_id,omitempty"`
	Paid          bool                 `json:"paid"`
	Visits        []patient.VisitInput `json:"visits,omitempty"`
	Consultations []ConsultationRecord `json:"consultations,omitempty"`
	Prescriptions []PrescriptionRecord `json:"prescriptions,omitempty"`
}

type ConsultationRecord struct {
	Date      time.Time           `json:"date"`
	Symptoms  string              `json:"symptoms"`
	Diagnosis string              `json:"diagnosis"`
	Treatment string              `json:"treatment"`
	Fee       decimal.Decimal     `json:"fee"`
	Status    consultation.Status `json:"status"`
}

type PrescriptionRecord struct {
	Lines   []prescription.Supplement `json:"lines"`
	Date    time.Time                 `json:"date"`
	Notes   string                    `json:"notes"`
	Outcome prescription.Status       `json:"outcome"`
}

// Dataset is the output of Generate. It carries inputs only; ids are
// assigned by the services on Load.
type Dataset struct {
	Config   Config          `json:"config"`
	Patients []PatientRecord `json:"patients"`
}

// Result summarizes a Load.
type Result struct {
	Patients       int           `json:"patients"`
	Referrals      int           `json:"referrals"`
	Visits         int           `json:"visits"`
	Consultations  int           `json:"consultations"`
	Prescriptions  int           `json:"prescriptions"`
	InventoryItems int           `json:"inventory_items"`
	Duration       time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Reference fixtures
// ---------------------------------------------------------------------------

// ReferrerCode is the own referral code of the reference referrer.
const ReferrerCode = "REF123"

var referenceInventory = []inventory.AddInput{
	{Name: "Multi-Vitamin Complex", Category: "Vitamins", CurrentStock: 150, MinStock: 50, MaxStock: 500, UnitPrice: decimal.RequireFromString("29.99")},
	{Name: "Omega-3 Fish Oil", Category: "Omega-3", CurrentStock: 25, MinStock: 30, MaxStock: 200, UnitPrice: decimal.RequireFromString("39.99")},
	{Name: "Protein Powder", Category: "Protein", CurrentStock: 0, MinStock: 20, MaxStock: 100, UnitPrice: decimal.RequireFromString("49.99")},
	{Name: "Vitamin D3", Category: "Vitamins", CurrentStock: 75, MinStock: 25, MaxStock: 300, UnitPrice: decimal.RequireFromString("19.99")},
	{Name: "Magnesium Complex", Category: "Minerals", CurrentStock: 200, MinStock: 40, MaxStock: 400, UnitPrice: decimal.RequireFromString("24.99")},
}

func line(name string, qty int, price string, pv int) prescription.Supplement {
	return prescription.Supplement{Name: name, Quantity: qty, Price: decimal.RequireFromString(price), PV: pv}
}

// referenceRecords are the console's fixed patients. The first one owns
// ReferrerCode and the second is referred by it.
func referenceRecords() []PatientRecord {
	return []PatientRecord{
		{
			Input: patient.CreateInput{
				FirstName: "John", LastName: "Smith", Email: "john.smith@email.com",
				Phone: "+1-555-0456", Gender: "male", Country: "United States", Region: "California",
				OwnReferralCode: ReferrerCode,
			},
		},
		{
			Input: patient.CreateInput{
				FirstName: "John", LastName: "Doe", Email: "john.doe@email.com", Phone: "+1-555-0123",
				DateOfBirth: "1985-03-15", Gender: "male", Weight: 75.5, Height: 175,
				Citizenship: "American", Country: "United States", Region: "California",
				Address: "123 Main St, Los Angeles", MedicalHistory: "Diabetes Type 2, Hypertension",
				Allergies: "Penicillin", ReferralCode: ReferrerCode,
			},
			ConsultantID: "c1",
			Prescriptions: []PrescriptionRecord{{
				Lines: []prescription.Supplement{
					line("Multi-Vitamin Complex", 2, "29.99", 15),
					line("Omega-3 Fish Oil", 1, "39.99", 20),
				},
				Date:    time.Date(2023, 12, 15, 10, 30, 0, 0, time.UTC),
				Notes:   "Patient needs immune support and cardiovascular health",
				Outcome: prescription.StatusPending,
			}},
		},
		{
			Input: patient.CreateInput{
				FirstName: "Jane", LastName: "Smith", Email: "jane.smith@email.com", Phone: "+1-555-0789",
				Gender: "female", Country: "United States", Region: "New York",
			},
			ConsultantID: "c1",
			Prescriptions: []PrescriptionRecord{{
				Lines: []prescription.Supplement{
					line("Vitamin D3", 1, "19.99", 10),
					line("Probiotics Blend", 1, "49.99", 25),
				},
				Date:    time.Date(2023, 12, 15, 14, 15, 0, 0, time.UTC),
				Notes:   "Digestive health and bone strength support",
				Outcome: prescription.StatusPending,
			}},
		},
		{
			Input: patient.CreateInput{
				FirstName: "Robert", LastName: "Johnson", Email: "robert.johnson@email.com", Phone: "+1-555-0321",
				Gender: "male", Country: "United States", Region: "Texas",
			},
			ConsultantID: "c1",
			Paid:         true,
			Prescriptions: []PrescriptionRecord{{
				Lines:   []prescription.Supplement{line("Collagen Peptides", 1, "59.99", 30)},
				Date:    time.Date(2023, 12, 14, 9, 45, 0, 0, time.UTC),
				Notes:   "Joint health improvement",
				Outcome: prescription.StatusFulfilled,
			}},
		},
	}
}

// ---------------------------------------------------------------------------
// Generation pools
// ---------------------------------------------------------------------------

var catalogue = []prescription.Supplement{
	line("Multi-Vitamin Complex", 1, "29.99", 15),
	line("Omega-3 Fish Oil", 1, "39.99", 20),
	line("Vitamin D3", 1, "19.99", 10),
	line("Probiotics Blend", 1, "49.99", 25),
	line("Collagen Peptides", 1, "59.99", 30),
	line("Magnesium Complex", 1, "24.99", 12),
	line("Protein Powder", 1, "49.99", 25),
}

var symptoms = []string{
	"Fatigue and low energy", "Joint pain", "Poor sleep", "Frequent headaches",
	"Digestive discomfort", "Seasonal allergies", "Muscle cramps",
}

var diagnoses = []string{
	"Vitamin D deficiency", "Mild iron deficiency", "Stress related insomnia",
	"Irritable bowel", "Early osteoarthritis", "Magnesium deficiency",
}

var treatments = []string{
	"Daily supplementation for 8 weeks", "Dietary changes and follow up in 4 weeks",
	"Sleep hygiene plan with magnesium", "Probiotic course and food diary",
}

var (
	allergyPool = []string{"", "", "Penicillin", "Peanuts", "Shellfish", "Latex", "Pollen"}
	historyPool = []string{"", "", "Hypertension", "Diabetes Type 2", "Asthma", "High cholesterol"}
	visitTypes  = []patient.VisitType{patient.VisitConsultation, patient.VisitFollowUp, patient.VisitRoutine}
)

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate builds a dataset from cfg. The same non-zero seed always yields
// the same dataset; a zero seed picks a time based one.
func Generate(cfg Config) Dataset {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if len(cfg.ConsultantIDs) == 0 {
		cfg.ConsultantIDs = DefaultConfig().ConsultantIDs
	}
	f := gofakeit.New(uint64(cfg.Seed))
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	ds := Dataset{Config: cfg, Patients: make([]PatientRecord, 0, cfg.Patients)}
	for i := 0; i < cfg.Patients; i++ {
		ds.Patients = append(ds.Patients, generatePatient(f, cfg, base, i))
	}
	return ds
}

func generatePatient(f *gofakeit.Faker, cfg Config, base time.Time, i int) PatientRecord {
	first, last := f.FirstName(), f.LastName()
	rec := PatientRecord{
		Input: patient.CreateInput{
			FirstName:      first,
			LastName:       last,
			Email:          fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
			Phone:          f.Phone(),
			DateOfBirth:    f.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)).Format("2006-01-02"),
			Gender:         f.RandomString([]string{"male", "female"}),
			Weight:         float64(f.Number(450, 1100)) / 10,
			Height:         float64(f.Number(150, 200)),
			Country:        f.Country(),
			Region:         f.State(),
			Address:        f.Street() + ", " + f.City(),
			MedicalHistory: f.RandomString(historyPool),
			Allergies:      f.RandomString(allergyPool),
		},
	}
	// Every fifth patient is referred by the reference referrer.
	if i%5 == 4 {
		rec.Input.ReferralCode = ReferrerCode
	}
	// A quarter of patients have not been assigned yet.
	if f.Number(0, 3) == 0 {
		return rec
	}
	rec.ConsultantID = cfg.ConsultantIDs[f.Number(0, len(cfg.ConsultantIDs)-1)]
	rec.Paid = f.Bool()

	day := base.AddDate(0, 0, f.Number(0, 300))
	rec.Visits = append(rec.Visits, patient.VisitInput{
		VisitDate:    day,
		ConsultantID: rec.ConsultantID,
		VisitType:    visitTypes[f.Number(0, len(visitTypes)-1)],
		Notes:        f.RandomString(symptoms),
	})
	rec.Consultations = append(rec.Consultations, ConsultationRecord{
		Date:      day,
		Symptoms:  f.RandomString(symptoms),
		Diagnosis: f.RandomString(diagnoses),
		Treatment: f.RandomString(treatments),
		Fee:       decimal.NewFromInt(int64(f.Number(10, 25) * 10)),
		Status:    consultation.StatusCompleted,
	})
	for j := 0; j < cfg.Prescriptions; j++ {
		rec.Prescriptions = append(rec.Prescriptions, generatePrescription(f, day))
	}
	return rec
}

func generatePrescription(f *gofakeit.Faker, day time.Time) PrescriptionRecord {
	n := f.Number(1, 3)
	picked := map[int]bool{}
	lines := make([]prescription.Supplement, 0, n)
	for len(lines) < n {
		k := f.Number(0, len(catalogue)-1)
		if picked[k] {
			continue
		}
		picked[k] = true
		l := catalogue[k]
		l.Quantity = f.Number(1, 3)
		lines = append(lines, l)
	}
	outcome := prescription.StatusPending
	switch f.Number(0, 4) {
	case 0:
		outcome = prescription.StatusCancelled
	case 1, 2:
		outcome = prescription.StatusFulfilled
	}
	return PrescriptionRecord{
		Lines:   lines,
		Date:    day.Add(time.Duration(f.Number(0, 8)) * time.Hour),
		Notes:   f.RandomString(treatments),
		Outcome: outcome,
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// Stores are the services Load writes through. Consultations may be nil, in
// which case consultation history is skipped.
type Stores struct {
	Patients      *patient.Service
	Consultants   identity.ConsultantRepository
	Consultations *consultation.Service
	Prescriptions *prescription.Service
	Inventory     *inventory.Ledger
}

// Load writes the reference fixtures followed by ds.
func Load(ctx context.Context, ds Dataset, st Stores, logger zerolog.Logger) (*Result, error) {
	start := time.Now()
	res := &Result{}

	for _, in := range referenceInventory {
		if _, err := st.Inventory.Add(ctx, in); err != nil {
			return nil, fmt.Errorf("seed inventory %q: %w", in.Name, err)
		}
		res.InventoryItems++
	}

	records := append(referenceRecords(), ds.Patients...)
	for i := range records {
		if err := loadRecord(ctx, st, &records[i], res); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	logger.Info().
		Int("patients", res.Patients).
		Int("consultations", res.Consultations).
		Int("prescriptions", res.Prescriptions).
		Int("inventory_items", res.InventoryItems).
		Dur("duration", res.Duration).
		Msg("demo data loaded")
	return res, nil
}

func loadRecord(ctx context.Context, st Stores, rec *PatientRecord, res *Result) error {
	p, err := st.Patients.Create(ctx, rec.Input)
	if err != nil {
		return fmt.Errorf("seed patient %s %s: %w", rec.Input.FirstName, rec.Input.LastName, err)
	}
	res.Patients++
	if p.ReferrerID != "" {
		res.Referrals++
	}
	if rec.ConsultantID == "" {
		return nil
	}

	c, err := st.Consultants.GetByID(ctx, rec.ConsultantID)
	if err != nil {
		return fmt.Errorf("seed consultant %s: %w", rec.ConsultantID, err)
	}
	if _, err := st.Patients.AssignConsultant(ctx, p.ID, c.ID); err != nil {
		return err
	}
	if rec.Paid {
		if _, err := st.Patients.TogglePayment(ctx, p.ID); err != nil {
			return err
		}
	}

	for _, v := range rec.Visits {
		visit, err := st.Patients.ScheduleVisit(ctx, p.ID, v)
		if err != nil {
			return fmt.Errorf("seed visit: %w", err)
		}
		if visit.VisitDate.Before(time.Now()) {
			if _, err := st.Patients.AdvanceVisit(ctx, p.ID, visit.ID, patient.VisitInProgress); err != nil {
				return err
			}
			if _, err := st.Patients.AdvanceVisit(ctx, p.ID, visit.ID, patient.VisitCompleted); err != nil {
				return err
			}
		}
		res.Visits++
	}

	if st.Consultations != nil {
		for _, cr := range rec.Consultations {
			rx := "none"
			if len(rec.Prescriptions) > 0 {
				rx = supplementNames(rec.Prescriptions[0].Lines)
			}
			err := st.Consultations.Import(ctx, &consultation.Consultation{
				PatientID:      p.ID,
				PatientName:    p.FullName(),
				PatientType:    consultation.PatientNew,
				ConsultantID:   c.ID,
				ConsultantName: c.Name,
				Date:           cr.Date,
				Symptoms:       cr.Symptoms,
				Diagnosis:      cr.Diagnosis,
				Treatment:      cr.Treatment,
				Prescription:   rx,
				Fee:            cr.Fee,
				Status:         cr.Status,
				CreatedAt:      cr.Date,
			})
			if err != nil {
				return fmt.Errorf("seed consultation: %w", err)
			}
			res.Consultations++
		}
	}

	for _, pr := range rec.Prescriptions {
		created, err := st.Prescriptions.Create(ctx, prescription.CreateInput{
			PatientID:        p.ID,
			PatientName:      p.FullName(),
			ConsultantID:     c.ID,
			ConsultantName:   c.Name,
			Supplements:      pr.Lines,
			PrescriptionDate: pr.Date,
			Notes:            pr.Notes,
		})
		if err != nil {
			return fmt.Errorf("seed prescription: %w", err)
		}
		switch pr.Outcome {
		case prescription.StatusFulfilled:
			st.Prescriptions.Fulfill(ctx, created.ID)
		case prescription.StatusCancelled:
			st.Prescriptions.Cancel(ctx, created.ID)
		}
		res.Prescriptions++
	}
	return nil
}

func supplementNames(lines []prescription.Supplement) string {
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}
