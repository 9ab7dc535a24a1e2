package prescription

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type Service struct {
	mu     sync.Mutex
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// List returns the prescriptions matching every filter, newest first.
func (s *Service) List(ctx context.Context, f Filters) []*Prescription {
	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list prescriptions")
		return []*Prescription{}
	}
	needle := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	status := strings.ToLower(strings.TrimSpace(f.Status))
	out := make([]*Prescription, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		p := all[i]
		if status != "" && status != "all" && string(p.Status) != status {
			continue
		}
		if f.ConsultantID != "" && p.ConsultantID != f.ConsultantID {
			continue
		}
		if f.PatientID != "" && p.PatientID != f.PatientID {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		out = append(out, p)
	}
	// newest prescription date first; same-day entries fall back to entry time
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PrescriptionDate.Equal(out[j].PrescriptionDate) {
			return out[i].PrescriptionDate.After(out[j].PrescriptionDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func matches(p *Prescription, needle string) bool {
	if strings.Contains(strings.ToLower(p.PatientName), needle) ||
		strings.Contains(strings.ToLower(p.ConsultantName), needle) {
		return true
	}
	for _, l := range p.Supplements {
		if strings.Contains(strings.ToLower(l.Name), needle) {
			return true
		}
	}
	return false
}

// Get returns the prescription with id; ok is false when there is none.
func (s *Service) Get(ctx context.Context, id string) (*Prescription, bool) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false
	}
	return p, true
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	v := &apperr.ValidationError{}
	v.Required("patient_id", in.PatientID)
	v.Required("patient_name", in.PatientName)
	v.Required("consultant_id", in.ConsultantID)
	v.Required("consultant_name", in.ConsultantName)
	lines := normalizeLines(v, in.Supplements)
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Prescription{
		ID:               uuid.New().String(),
		PatientID:        in.PatientID,
		PatientName:      in.PatientName,
		ConsultantID:     in.ConsultantID,
		ConsultantName:   in.ConsultantName,
		Supplements:      lines,
		Status:           StatusPending,
		PrescriptionDate: in.PrescriptionDate,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.PrescriptionDate.IsZero() {
		p.PrescriptionDate = now
	}
	p.TotalPrice, p.TotalPV = Totals(p.Supplements)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	s.logger.Info().Str("prescription_id", p.ID).Str("patient_id", p.PatientID).
		Str("total_price", p.TotalPrice.StringFixed(2)).Int("total_pv", p.TotalPV).Msg("prescription created")
	return p, nil
}

// normalizeLines validates the lines and fills in missing line ids.
func normalizeLines(v *apperr.ValidationError, in []Supplement) []Supplement {
	if len(in) == 0 {
		v.Add("supplements", "at least one supplement is required")
		return nil
	}
	lines := make([]Supplement, len(in))
	for i, l := range in {
		field := fmt.Sprintf("supplements[%d]", i)
		if strings.TrimSpace(l.Name) == "" {
			v.Add(field+".name", field+".name is required")
		}
		if l.Quantity <= 0 {
			v.Add(field+".quantity", field+".quantity must be greater than zero")
		}
		if l.Price.IsNegative() {
			v.Add(field+".price", field+".price must not be negative")
		}
		if l.PV < 0 {
			v.Add(field+".pv", field+".pv must not be negative")
		}
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		lines[i] = l
	}
	return lines
}

// Fulfill moves a pending prescription to fulfilled. It reports false when
// the prescription is missing or already closed.
func (s *Service) Fulfill(ctx context.Context, id string) bool {
	return s.close(ctx, id, StatusFulfilled)
}

func (s *Service) Cancel(ctx context.Context, id string) bool {
	return s.close(ctx, id, StatusCancelled)
}

func (s *Service) close(ctx context.Context, id string, to Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil || p.Status != StatusPending {
		return false
	}
	p.Status = to
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("prescription_id", id).Msg("close prescription")
		return false
	}
	s.logger.Info().Str("prescription_id", id).Str("status", string(to)).Msg("prescription closed")
	return true
}

// ReplaceItems swaps the line items of a pending prescription and
// recomputes its totals.
func (s *Service) ReplaceItems(ctx context.Context, id string, items []Supplement) (*Prescription, error) {
	v := &apperr.ValidationError{}
	lines := normalizeLines(v, items)
	if err := v.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		return nil, fmt.Errorf("%w: prescription %s is %s", apperr.ErrInvalidTransition, p.ID, p.Status)
	}
	p.Supplements = lines
	p.TotalPrice, p.TotalPV = Totals(lines)
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Stats folds over every prescription. Revenue and PV count all records
// regardless of status.
func (s *Service) Stats(ctx context.Context) Stats {
	st := Stats{TotalRevenue: decimal.Zero}
	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list prescriptions for stats")
		return st
	}
	for _, p := range all {
		switch p.Status {
		case StatusPending:
			st.Pending++
		case StatusFulfilled:
			st.Fulfilled++
		case StatusCancelled:
			st.Cancelled++
		}
		st.TotalRevenue = st.TotalRevenue.Add(p.TotalPrice)
		st.TotalPV += p.TotalPV
	}
	return st
}
