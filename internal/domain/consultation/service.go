package consultation

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

	"github.com/eternalbranch/clinic/internal/domain/identity"
	"github.com/eternalbranch/clinic/internal/domain/patient"
	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type PatientDirectory interface {
	Get(ctx context.Context, id string) (*patient.Patient, error)
}

type ConsultantDirectory interface {
	Consultant(ctx context.Context, id string) (*identity.Consultant, bool)
}

// Service runs the stepped consultation form and keeps submitted
// consultations. Drafts live only in memory until submitted or discarded.
type Service struct {
	mu          sync.Mutex
	drafts      map[string]Draft
	repo        Repository
	patients    PatientDirectory
	consultants ConsultantDirectory
	defaultFee  decimal.Decimal
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(repo Repository, patients PatientDirectory, consultants ConsultantDirectory, defaultFee decimal.Decimal, logger zerolog.Logger) *Service {
	return &Service{
		drafts:      make(map[string]Draft),
		repo:        repo,
		patients:    patients,
		consultants: consultants,
		defaultFee:  defaultFee,
		logger:      logger,
		now:         time.Now,
	}
}

// StartDraft opens a draft for a patient/consultant pair. A patient with any
// visit or earlier consultation is an existing patient.
func (s *Service) StartDraft(ctx context.Context, patientID, consultantID string) (Draft, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return Draft{}, err
	}
	c, ok := s.consultants.Consultant(ctx, consultantID)
	if !ok {
		return Draft{}, apperr.NotFound("consultant", consultantID)
	}

	patientType := PatientNew
	if len(p.Visits) > 0 || s.hasConsultations(ctx, p.ID) {
		patientType = PatientExisting
	}

	d := NewDraft(uuid.New().String(), s.now(), s.defaultFee)
	d.PatientID = p.ID
	d.PatientName = p.FullName()
	d.PatientType = patientType
	d.ConsultantID = c.ID
	d.ConsultantName = c.Name

	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()

	s.logger.Info().Str("draft_id", d.ID).Str("patient_id", p.ID).Str("consultant_id", c.ID).Msg("consultation draft started")
	return d, nil
}

func (s *Service) hasConsultations(ctx context.Context, patientID string) bool {
	all, err := s.repo.List(ctx)
	if err != nil {
		return false
	}
	for _, c := range all {
		if c.PatientID == patientID {
			return true
		}
	}
	return false
}

func (s *Service) GetDraft(_ context.Context, draftID string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return Draft{}, apperr.NotFound("draft", draftID)
	}
	return d, nil
}

func (s *Service) SaveStep(_ context.Context, draftID string, data StepData) (Draft, error) {
	return s.mutateDraft(draftID, func(d Draft) (Draft, error) { return d.SaveStep(data) })
}

func (s *Service) Advance(_ context.Context, draftID string) (Draft, error) {
	return s.mutateDraft(draftID, Draft.Advance)
}

func (s *Service) Back(_ context.Context, draftID string) (Draft, error) {
	return s.mutateDraft(draftID, Draft.Back)
}

func (s *Service) mutateDraft(draftID string, fn func(Draft) (Draft, error)) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return Draft{}, apperr.NotFound("draft", draftID)
	}
	next, err := fn(d)
	if err != nil {
		return d, err
	}
	s.drafts[draftID] = next
	return next, nil
}

// Submit validates the draft and records it as a consultation. An empty
// finalStatus means completed. The draft is kept when validation fails.
func (s *Service) Submit(ctx context.Context, draftID string, finalStatus Status) (*Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, apperr.NotFound("draft", draftID)
	}
	c, err := d.Finalize(uuid.New().String(), finalStatus, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store consultation: %w", err)
	}
	delete(s.drafts, draftID)

	s.logger.Info().Str("consultation_id", c.ID).Str("patient_id", c.PatientID).Str("status", string(c.Status)).Msg("consultation submitted")
	return c, nil
}

func (s *Service) DiscardDraft(_ context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[draftID]; !ok {
		return apperr.NotFound("draft", draftID)
	}
	delete(s.drafts, draftID)
	return nil
}

// UpdateStatus overwrites the status without checking the transition. The
// step follows the new status; cancelled keeps the step it had.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Consultation, error) {
	if !status.Valid() {
		return nil, apperr.NewValidation("status", fmt.Sprintf("unknown status %q", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = status
	if step, ok := StepForStatus(status); ok {
		c.Step = step
	}
	c.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("consultation_id", c.ID).Str("status", string(status)).Msg("consultation status updated")
	return c, nil
}

// Reschedule puts a cancelled consultation back to pending on step 1.
func (s *Service) Reschedule(ctx context.Context, id string) (*Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusCancelled {
		return nil, fmt.Errorf("%w: only cancelled consultations can be rescheduled, %s is %s", apperr.ErrInvalidTransition, c.ID, c.Status)
	}
	c.Status = StatusPending
	c.Step = FirstStep
	c.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("consultation_id", c.ID).Msg("consultation rescheduled")
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns consultations newest first, filtered by a case-insensitive
// search over patient name, symptoms and diagnosis.
func (s *Service) List(ctx context.Context, search string) []*Consultation {
	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list consultations")
		return []*Consultation{}
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]*Consultation, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		c := all[i]
		if needle == "" || containsFold(needle, c.PatientName, c.Symptoms, c.Diagnosis) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Import stores an already submitted consultation, as loaded from demo data.
func (s *Service) Import(ctx context.Context, c *Consultation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if !c.Status.Valid() {
		return apperr.NewValidation("status", fmt.Sprintf("unknown status %q", c.Status))
	}
	if step, ok := StepForStatus(c.Status); ok && c.Step == 0 {
		c.Step = step
	}
	if c.Step < FirstStep || c.Step > LastStep {
		c.Step = LastStep
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return s.repo.Create(ctx, c)
}
