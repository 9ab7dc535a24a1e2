package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

// visitTransitions lists the forward moves a visit may take. Reschedule is
// the only way back out of cancelled.
var visitTransitions = map[VisitStatus][]VisitStatus{
	VisitScheduled:  {VisitInProgress, VisitCancelled},
	VisitInProgress: {VisitCompleted, VisitCancelled},
}

func canMoveVisit(from, to VisitStatus) bool {
	for _, next := range visitTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) ScheduleVisit(ctx context.Context, patientID string, in VisitInput) (*Visit, error) {
	v := &apperr.ValidationError{}
	if in.VisitDate.IsZero() {
		v.Add("visit_date", "visit_date is required")
	}
	if in.VisitType == "" {
		in.VisitType = VisitConsultation
	}
	if !in.VisitType.Valid() {
		v.Add("visit_type", fmt.Sprintf("unknown visit_type %q", in.VisitType))
	}
	v.Required("consultant_id", in.ConsultantID)
	if err := v.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	c, ok := s.consultants.Consultant(ctx, in.ConsultantID)
	if !ok {
		return nil, apperr.NotFound("consultant", in.ConsultantID)
	}
	visit := Visit{
		ID:             uuid.New().String(),
		PatientID:      p.ID,
		VisitDate:      in.VisitDate,
		ConsultantID:   c.ID,
		ConsultantName: c.Name,
		VisitType:      in.VisitType,
		Status:         VisitScheduled,
		Notes:          in.Notes,
		Prescriptions:  append([]string(nil), in.Prescriptions...),
	}
	p.Visits = append(p.Visits, visit)
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.ID).Str("visit_id", visit.ID).Msg("visit scheduled")
	return &visit, nil
}

func (s *Service) AdvanceVisit(ctx context.Context, patientID, visitID string, status VisitStatus) (*Visit, error) {
	return s.mutateVisit(ctx, patientID, visitID, func(v *Visit) error {
		if !canMoveVisit(v.Status, status) {
			return fmt.Errorf("%w: visit %s cannot move from %s to %s", apperr.ErrInvalidTransition, v.ID, v.Status, status)
		}
		v.Status = status
		return nil
	})
}

func (s *Service) RescheduleVisit(ctx context.Context, patientID, visitID string, in VisitInput) (*Visit, error) {
	if in.VisitDate.IsZero() {
		return nil, apperr.NewValidation("visit_date", "visit_date is required")
	}
	return s.mutateVisit(ctx, patientID, visitID, func(v *Visit) error {
		if v.Status != VisitCancelled {
			return fmt.Errorf("%w: only cancelled visits can be rescheduled, visit %s is %s", apperr.ErrInvalidTransition, v.ID, v.Status)
		}
		v.Status = VisitScheduled
		v.VisitDate = in.VisitDate
		return nil
	})
}

func (s *Service) mutateVisit(ctx context.Context, patientID, visitID string, fn func(*Visit) error) (*Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for i := range p.Visits {
		if p.Visits[i].ID != visitID {
			continue
		}
		if err := fn(&p.Visits[i]); err != nil {
			return nil, err
		}
		p.UpdatedAt = s.now()
		if err := s.repo.Replace(ctx, p); err != nil {
			return nil, err
		}
		visit := p.Visits[i]
		return &visit, nil
	}
	return nil, apperr.NotFound("visit", visitID)
}
