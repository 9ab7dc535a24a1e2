package identity

import (
	"time"
)

type Role string

const (
	RoleSuperadmin   Role = "superadmin"
	RoleStationAdmin Role = "station_admin"
	RoleReceptionist Role = "receptionist"
	RoleConsultant   Role = "consultant"
	RolePharmacist   Role = "pharmacist"
	RoleMember       Role = "member"
)

// User is a staff account from the fixed roster.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	ClinicID  string    `json:"clinic_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Consultant is an entry of the consultant directory used for patient
// assignment and consultations.
type Consultant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}
