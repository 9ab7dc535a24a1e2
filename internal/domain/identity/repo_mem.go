package identity

import (
	"context"
	"strings"
	"time"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

// rosterRepo serves the fixed staff roster. The roster is read-only.
type rosterRepo struct {
	users []User
}

func NewRosterRepo(clinicID string) UserRepository {
	now := time.Now()
	staff := []User{
		{ID: "1", Email: "receptionist@eternalbranch.com", FirstName: "Sarah", LastName: "Johnson", Role: RoleReceptionist},
		{ID: "2", Email: "consultant@eternalbranch.com", FirstName: "Dr. Michael", LastName: "Chen", Role: RoleConsultant},
		{ID: "3", Email: "pharmacist@eternalbranch.com", FirstName: "Emma", LastName: "Rodriguez", Role: RolePharmacist},
	}
	for i := range staff {
		staff[i].ClinicID = clinicID
		staff[i].IsActive = true
		staff[i].CreatedAt = now
		staff[i].UpdatedAt = now
	}
	return &rosterRepo{users: staff}
}

func (r *rosterRepo) GetByID(_ context.Context, id string) (*User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user", id)
}

func (r *rosterRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range r.users {
		if strings.ToLower(r.users[i].Email) == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (r *rosterRepo) List(_ context.Context) ([]*User, error) {
	out := make([]*User, 0, len(r.users))
	for i := range r.users {
		u := r.users[i]
		out = append(out, &u)
	}
	return out, nil
}

type consultantDirectory struct {
	consultants []Consultant
}

func NewConsultantDirectory() ConsultantRepository {
	return &consultantDirectory{consultants: []Consultant{
		{ID: "c1", Name: "Dr. Michael Chen", Specialty: "General Health", Available: true},
		{ID: "c2", Name: "Dr. Sarah Wilson", Specialty: "Nutrition", Available: true},
		{ID: "c3", Name: "Dr. David Rodriguez", Specialty: "Wellness", Available: false},
		{ID: "c4", Name: "Dr. Emily Johnson", Specialty: "Preventive Care", Available: true},
	}}
}

func (d *consultantDirectory) GetByID(_ context.Context, id string) (*Consultant, error) {
	for i := range d.consultants {
		if d.consultants[i].ID == id {
			c := d.consultants[i]
			return &c, nil
		}
	}
	return nil, apperr.NotFound("consultant", id)
}

func (d *consultantDirectory) List(_ context.Context) ([]*Consultant, error) {
	out := make([]*Consultant, 0, len(d.consultants))
	for i := range d.consultants {
		c := d.consultants[i]
		out = append(out, &c)
	}
	return out, nil
}
