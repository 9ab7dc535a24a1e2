package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user account is inactive")
)

// Service authenticates staff against the roster and serves the consultant
// directory.
type Service struct {
	users          UserRepository
	consultants    ConsultantRepository
	passphraseHash []byte
	logger         zerolog.Logger
}

func NewService(users UserRepository, consultants ConsultantRepository, passphrase string, logger zerolog.Logger) (*Service, error) {
	return newService(users, consultants, passphrase, bcrypt.DefaultCost, logger)
}

// NewRoster builds a Service over the fixed staff roster and consultant
// directory. Every roster account signs in with the shared passphrase.
func NewRoster(passphrase, clinicID string, logger zerolog.Logger) (*Service, error) {
	return NewService(NewRosterRepo(clinicID), NewConsultantDirectory(), passphrase, logger)
}

func newService(users UserRepository, consultants ConsultantRepository, passphrase string, cost int, logger zerolog.Logger) (*Service, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return nil, fmt.Errorf("hash passphrase: %w", err)
	}
	return &Service{users: users, consultants: consultants, passphraseHash: hash, logger: logger}, nil
}

// Login checks the credentials against the roster. Unknown emails and wrong
// passwords fail with the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Warn().Str("email", email).Msg("login with unknown email")
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(s.passphraseHash, []byte(password)) != nil {
		s.logger.Warn().Str("user_id", u.ID).Msg("login with wrong password")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	s.logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("staff signed in")
	return u, nil
}

func (s *Service) UserByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) Users(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

func (s *Service) Consultants(ctx context.Context) ([]*Consultant, error) {
	return s.consultants.List(ctx)
}

// Consultant looks a consultant up by id; ok is false when the id is unknown.
func (s *Service) Consultant(ctx context.Context, id string) (*Consultant, bool) {
	c, err := s.consultants.GetByID(ctx, id)
	if err != nil {
		return nil, false
	}
	return c, true
}
