package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/domain/consultation"
	"github.com/eternalbranch/clinic/internal/domain/inventory"
	"github.com/eternalbranch/clinic/internal/domain/patient"
	"github.com/eternalbranch/clinic/internal/domain/prescription"
)

type PatientSource interface {
	List(ctx context.Context) ([]*patient.Patient, error)
}

type ConsultationSource interface {
	List(ctx context.Context, search string) []*consultation.Consultation
}

type PrescriptionSource interface {
	Stats(ctx context.Context) prescription.Stats
}

type InventorySource interface {
	Filter(ctx context.Context, f inventory.Filter) []*inventory.Item
}

type PatientSummary struct {
	Total           int             `json:"total"`
	Active          int             `json:"active"`
	Assigned        int             `json:"assigned"`
	PendingPayments int             `json:"pending_payments"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
}

type ConsultationSummary struct {
	Total    int                         `json:"total"`
	ByStatus map[consultation.Status]int `json:"by_status"`
}

type InventorySummary struct {
	Total      int                      `json:"total"`
	ByStatus   map[inventory.Status]int `json:"by_status"`
	LowStock   []string                 `json:"low_stock"`
	OutOfStock []string                 `json:"out_of_stock"`
	StockValue decimal.Decimal          `json:"stock_value"`
}

type Summary struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	Patients      PatientSummary      `json:"patients"`
	Consultations ConsultationSummary `json:"consultations"`
	Prescriptions prescription.Stats  `json:"prescriptions"`
	Inventory     InventorySummary    `json:"inventory"`
}

// Service builds the console's landing-page figures from the live stores.
type Service struct {
	patients      PatientSource
	consultations ConsultationSource
	prescriptions PrescriptionSource
	inventory     InventorySource
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(patients PatientSource, consultations ConsultationSource, prescriptions PrescriptionSource, inv InventorySource, logger zerolog.Logger) *Service {
	return &Service{
		patients:      patients,
		consultations: consultations,
		prescriptions: prescriptions,
		inventory:     inv,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) Summary(ctx context.Context) Summary {
	return Summary{
		GeneratedAt:   s.now(),
		Patients:      s.patientSummary(ctx),
		Consultations: s.consultationSummary(ctx),
		Prescriptions: s.prescriptions.Stats(ctx),
		Inventory:     s.inventorySummary(ctx),
	}
}

func (s *Service) patientSummary(ctx context.Context) PatientSummary {
	sum := PatientSummary{TotalEarnings: decimal.Zero}
	all, err := s.patients.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list patients for dashboard")
		return sum
	}
	for _, p := range all {
		sum.Total++
		if p.IsActive {
			sum.Active++
		}
		if p.AssignedConsultantID != "" {
			sum.Assigned++
		}
		if p.PaymentStatus == patient.PaymentPending || p.PaymentStatus == patient.PaymentOverdue {
			sum.PendingPayments++
		}
		sum.TotalEarnings = sum.TotalEarnings.Add(p.TotalEarnings)
	}
	return sum
}

func (s *Service) consultationSummary(ctx context.Context) ConsultationSummary {
	sum := ConsultationSummary{ByStatus: make(map[consultation.Status]int)}
	for _, c := range s.consultations.List(ctx, "") {
		sum.Total++
		sum.ByStatus[c.Status]++
	}
	return sum
}

func (s *Service) inventorySummary(ctx context.Context) InventorySummary {
	sum := InventorySummary{
		ByStatus:   make(map[inventory.Status]int),
		LowStock:   []string{},
		OutOfStock: []string{},
		StockValue: decimal.Zero,
	}
	for _, item := range s.inventory.Filter(ctx, inventory.Filter{}) {
		sum.Total++
		sum.ByStatus[item.Status]++
		switch item.Status {
		case inventory.StatusLowStock:
			sum.LowStock = append(sum.LowStock, item.Name)
		case inventory.StatusOutOfStock:
			sum.OutOfStock = append(sum.OutOfStock, item.Name)
		}
		sum.StockValue = sum.StockValue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.CurrentStock))))
	}
	return sum
}
