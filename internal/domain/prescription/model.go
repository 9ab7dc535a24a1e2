package prescription

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// Supplement is one prescribed line item.
type Supplement struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	PV       int             `json:"pv"`
}

type Prescription struct {
	ID               string          `json:"id"`
	PatientID        string          `json:"patient_id"`
	PatientName      string          `json:"patient_name"`
	ConsultantID     string          `json:"consultant_id"`
	ConsultantName   string          `json:"consultant_name"`
	Supplements      []Supplement    `json:"supplements"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	TotalPV          int             `json:"total_pv"`
	Status           Status          `json:"status"`
	PrescriptionDate time.Time       `json:"prescription_date"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *Prescription) clone() *Prescription {
	cp := *p
	cp.Supplements = append([]Supplement(nil), p.Supplements...)
	return &cp
}

// Totals sums quantity*price and quantity*pv over the lines.
func Totals(lines []Supplement) (price decimal.Decimal, pv int) {
	price = decimal.Zero
	for _, l := range lines {
		q := int64(l.Quantity)
		price = price.Add(l.Price.Mul(decimal.NewFromInt(q)))
		pv += l.Quantity * l.PV
	}
	return price, pv
}

type CreateInput struct {
	PatientID        string       `json:"patient_id"`
	PatientName      string       `json:"patient_name"`
	ConsultantID     string       `json:"consultant_id"`
	ConsultantName   string       `json:"consultant_name"`
	Supplements      []Supplement `json:"supplements"`
	PrescriptionDate time.Time    `json:"prescription_date"`
	Notes            string       `json:"notes"`
}

// Filters are ANDed. An empty Status or "all" matches every status.
type Filters struct {
	SearchTerm   string
	Status       string
	ConsultantID string
	PatientID    string
}

type Stats struct {
	Pending      int             `json:"pending"`
	Fulfilled    int             `json:"fulfilled"`
	Cancelled    int             `json:"cancelled"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalPV      int             `json:"total_pv"`
}
