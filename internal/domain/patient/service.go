package patient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eternalbranch/clinic/internal/domain/identity"
	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

// ConsultantDirectory resolves consultant ids for assignment and visits.
type ConsultantDirectory interface {
	Consultant(ctx context.Context, id string) (*identity.Consultant, bool)
}

type Config struct {
	ClinicID   string
	DefaultFee decimal.Decimal
}

type Service struct {
	// mu serializes read-modify-replace cycles; reads go straight to the repo.
	mu          sync.Mutex
	repo        Repository
	consultants ConsultantDirectory
	cfg         Config
	logger      zerolog.Logger
	now         func() time.Time
	newID       func() string
}

func NewService(repo Repository, consultants ConsultantDirectory, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		consultants: consultants,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	v := &apperr.ValidationError{}
	v.Required("first_name", in.FirstName)
	v.Required("last_name", in.LastName)
	validateContact(v, in.Email, in.Gender, in.Weight, in.Height)
	if in.ConsultationFee != nil && in.ConsultationFee.IsNegative() {
		v.Add("consultation_fee", "consultation_fee must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ownCode := strings.TrimSpace(in.OwnReferralCode)
	if ownCode != "" && findByOwnCode(all, ownCode) != nil {
		v.Add("own_referral_code", "own_referral_code is already in use")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Patient{
		ID:             s.newID(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		DateOfBirth:    in.DateOfBirth,
		Gender:         in.Gender,
		Weight:         in.Weight,
		Height:         in.Height,
		Citizenship:    in.Citizenship,
		Country:        in.Country,
		Region:         in.Region,
		Address:        in.Address,
		MedicalHistory: in.MedicalHistory,
		Allergies:      in.Allergies,
		TotalEarnings:  decimal.Zero,
		ClinicID:       in.ClinicID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		Visits:         []Visit{},
	}
	if p.ClinicID == "" {
		p.ClinicID = s.cfg.ClinicID
	}
	if in.ConsultationFee != nil {
		fee := *in.ConsultationFee
		p.ConsultationFee = &fee
	}
	p.OwnReferralCode = ownCode
	if p.OwnReferralCode == "" {
		p.OwnReferralCode = s.uniqueReferralCode(p.ID, all)
	}

	referrer := s.linkReferral(p, in.ReferralCode, all)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	if referrer != nil {
		referrer.TotalReferrals++
		referrer.UpdatedAt = now
		if err := s.repo.Replace(ctx, referrer); err != nil {
			return nil, fmt.Errorf("credit referrer: %w", err)
		}
	}

	s.logger.Info().Str("patient_id", p.ID).Str("referrer_id", p.ReferrerID).Msg("patient created")
	return p, nil
}

// linkReferral stores code on p and, when it matches another patient's own
// referral code exactly, links that patient as the referrer.
func (s *Service) linkReferral(p *Patient, code string, all []*Patient) *Patient {
	p.ReferralCode = strings.TrimSpace(code)
	p.ReferrerID = ""
	p.ReferrerName = ""
	if p.ReferralCode == "" {
		return nil
	}
	referrer := findByOwnCode(all, p.ReferralCode)
	if referrer == nil || referrer.ID == p.ID {
		s.logger.Warn().Str("patient_id", p.ID).Str("referral_code", p.ReferralCode).Msg("referral code did not resolve")
		return nil
	}
	p.ReferrerID = referrer.ID
	p.ReferrerName = referrer.FullName()
	return referrer
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(p, patch)

	v := &apperr.ValidationError{}
	v.Required("first_name", p.FirstName)
	v.Required("last_name", p.LastName)
	validateContact(v, p.Email, p.Gender, p.Weight, p.Height)
	if p.TotalPurchases < 0 {
		v.Add("total_purchases", "total_purchases must not be negative")
	}
	if p.TotalEarnings.IsNegative() {
		v.Add("total_earnings", "total_earnings must not be negative")
	}
	if p.ConsultationFee != nil && p.ConsultationFee.IsNegative() {
		v.Add("consultation_fee", "consultation_fee must not be negative")
	}
	if p.ConsultationStatus != "" && !p.ConsultationStatus.Valid() {
		v.Add("consultation_status", fmt.Sprintf("unknown consultation_status %q", p.ConsultationStatus))
	}
	if p.PaymentStatus != "" && !p.PaymentStatus.Valid() {
		v.Add("payment_status", fmt.Sprintf("unknown payment_status %q", p.PaymentStatus))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var previous, referrer *Patient
	if patch.ReferralCode != nil {
		all, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		oldReferrerID := p.ReferrerID
		referrer = s.linkReferral(p, *patch.ReferralCode, all)
		if p.ReferrerID == oldReferrerID {
			referrer = nil
		} else if oldReferrerID != "" {
			previous, err = s.repo.GetByID(ctx, oldReferrerID)
			if err != nil {
				s.logger.Warn().Err(err).Str("patient_id", p.ID).Str("referrer_id", oldReferrerID).Msg("previous referrer not found, credit not moved")
				previous = nil
			}
		}
	}

	p.UpdatedAt = now
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	if previous != nil && previous.TotalReferrals > 0 {
		previous.TotalReferrals--
		previous.UpdatedAt = now
		if err := s.repo.Replace(ctx, previous); err != nil {
			return nil, err
		}
	}
	if referrer != nil {
		referrer.TotalReferrals++
		referrer.UpdatedAt = now
		if err := s.repo.Replace(ctx, referrer); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func applyPatch(p *Patient, patch Patch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&p.FirstName, patch.FirstName)
	setString(&p.LastName, patch.LastName)
	setString(&p.Email, patch.Email)
	setString(&p.Phone, patch.Phone)
	setString(&p.DateOfBirth, patch.DateOfBirth)
	setString(&p.Gender, patch.Gender)
	setString(&p.Citizenship, patch.Citizenship)
	setString(&p.Country, patch.Country)
	setString(&p.Region, patch.Region)
	setString(&p.Address, patch.Address)
	setString(&p.MedicalHistory, patch.MedicalHistory)
	setString(&p.Allergies, patch.Allergies)
	setString(&p.ClinicID, patch.ClinicID)
	if patch.Weight != nil {
		p.Weight = *patch.Weight
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.TotalPurchases != nil {
		p.TotalPurchases = *patch.TotalPurchases
	}
	if patch.TotalEarnings != nil {
		p.TotalEarnings = *patch.TotalEarnings
	}
	if patch.ConsultationFee != nil {
		fee := *patch.ConsultationFee
		p.ConsultationFee = &fee
	}
	if patch.ConsultationStatus != nil {
		p.ConsultationStatus = *patch.ConsultationStatus
	}
	if patch.PaymentStatus != nil {
		p.PaymentStatus = *patch.PaymentStatus
	}
}

func validateContact(v *apperr.ValidationError, email, gender string, weight, height float64) {
	if email = strings.TrimSpace(email); email != "" && !strings.Contains(email, "@") {
		v.Add("email", "email is not a valid address")
	}
	switch gender {
	case "", "male", "female", "other":
	default:
		v.Add("gender", "gender must be male, female or other")
	}
	if weight < 0 {
		v.Add("weight", "weight must not be negative")
	}
	if height < 0 {
		v.Add("height", "height must not be negative")
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

// Search matches term case-insensitively against full name, email, phone and
// referral code, or exactly against the id. An empty term returns everyone.
func (s *Service) Search(ctx context.Context, term string) []*Patient {
	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list patients for search")
		return []*Patient{}
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return all
	}
	needle := strings.ToLower(term)
	out := make([]*Patient, 0)
	for _, p := range all {
		if p.ID == term || matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p *Patient, needle string) bool {
	for _, field := range []string{p.FullName(), p.Email, p.Phone, p.ReferralCode} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Service) AssignConsultant(ctx context.Context, patientID, consultantID string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	c, ok := s.consultants.Consultant(ctx, consultantID)
	if !ok {
		return nil, apperr.NotFound("consultant", consultantID)
	}
	p.AssignedConsultantID = c.ID
	p.AssignedConsultantName = c.Name
	p.ConsultationStatus = ConsultationPending
	if p.ConsultationFee == nil {
		fee := s.cfg.DefaultFee
		p.ConsultationFee = &fee
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.ID).Str("consultant_id", c.ID).Msg("consultant assigned")
	return p, nil
}

// TogglePayment flips paid to pending and anything else to paid. An unset
// status counts as pending.
func (s *Service) TogglePayment(ctx context.Context, patientID string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus == PaymentPaid {
		p.PaymentStatus = PaymentPending
	} else {
		p.PaymentStatus = PaymentPaid
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ResolveReferral finds the patient whose own referral code equals code.
func (s *Service) ResolveReferral(ctx context.Context, code string) (*Patient, bool) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, false
	}
	p := findByOwnCode(all, strings.TrimSpace(code))
	return p, p != nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = active
	p.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func findByOwnCode(all []*Patient, code string) *Patient {
	if code == "" {
		return nil
	}
	for _, p := range all {
		if p.OwnReferralCode == code {
			return p
		}
	}
	return nil
}

// uniqueReferralCode derives a code from id, drawing fresh ids until the code
// does not collide with one already held, hand-entered codes included.
func (s *Service) uniqueReferralCode(id string, all []*Patient) string {
	code := generateReferralCode(id)
	for findByOwnCode(all, code) != nil {
		s.logger.Debug().Str("referral_code", code).Msg("generated referral code taken, drawing again")
		code = generateReferralCode(s.newID())
	}
	return code
}

func generateReferralCode(id string) string {
	return "REF" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:6])
}
