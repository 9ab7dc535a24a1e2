package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInStock      Status = "in-stock"
	StatusLowStock     Status = "low-stock"
	StatusOutOfStock   Status = "out-of-stock"
	StatusDiscontinued Status = "discontinued"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

// DeriveStatus maps a stock level onto a status. Discontinued is never
// derived; it is set by hand.
func DeriveStatus(current, min int) Status {
	switch {
	case current <= 0:
		return StatusOutOfStock
	case current <= min:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

type Item struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	CurrentStock  int             `json:"current_stock"`
	MinStock      int             `json:"min_stock"`
	MaxStock      int             `json:"max_stock"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LastRestocked time.Time       `json:"last_restocked"`
	Status        Status          `json:"status"`
}

// StockLevel is current stock as a whole percentage of max stock, capped at 100.
func (i *Item) StockLevel() int {
	if i.MaxStock <= 0 {
		return 0
	}
	pct := i.CurrentStock * 100 / i.MaxStock
	if pct > 100 {
		pct = 100
	}
	return pct
}

// rederive refreshes the status after a stock change.
func (i *Item) rederive() {
	if i.Status == StatusDiscontinued {
		return
	}
	i.Status = DeriveStatus(i.CurrentStock, i.MinStock)
}

type MovementKind string

const (
	MovementAdd      MovementKind = "add"
	MovementRestock  MovementKind = "restock"
	MovementDispense MovementKind = "dispense"
)

// Movement records one stock change.
type Movement struct {
	ID       string       `json:"id"`
	ItemID   string       `json:"item_id"`
	Kind     MovementKind `json:"kind"`
	Quantity int          `json:"quantity"`
	Before   int          `json:"before"`
	After    int          `json:"after"`
	At       time.Time    `json:"at"`
}

type AddInput struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CurrentStock int             `json:"current_stock"`
	MinStock     int             `json:"min_stock"`
	MaxStock     int             `json:"max_stock"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	// Status is ignored unless it is discontinued.
	Status Status `json:"status"`
}

// Filter fields are ANDed. Empty or "all" matches anything.
type Filter struct {
	Category   string
	Status     string
	SearchTerm string
}
