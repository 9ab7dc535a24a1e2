package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

var ErrDuplicateCategory = errors.New("category already exists")

// DefaultCategories are the categories a new ledger starts with.
var DefaultCategories = []string{"Vitamins", "Omega-3", "Protein", "Minerals"}

// Ledger holds stock items, their categories and the movement log.
type Ledger struct {
	mu         sync.RWMutex
	items      map[string]Item
	order      []string
	nextID     int
	categories []string
	movements  []Movement
	logger     zerolog.Logger
	now        func() time.Time
}

func NewLedger(logger zerolog.Logger) *Ledger {
	return &Ledger{
		items:      make(map[string]Item),
		nextID:     1,
		categories: append([]string(nil), DefaultCategories...),
		logger:     logger,
		now:        time.Now,
	}
}

func (l *Ledger) Add(_ context.Context, in AddInput) (*Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := &apperr.ValidationError{}
	v.Required("name", in.Name)
	v.Required("category", in.Category)
	category, known := l.findCategory(in.Category)
	if strings.TrimSpace(in.Category) != "" && !known {
		v.Add("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.CurrentStock < 0 {
		v.Add("current_stock", "current_stock must not be negative")
	}
	if in.MinStock < 0 {
		v.Add("min_stock", "min_stock must not be negative")
	}
	if in.MinStock > in.MaxStock {
		v.Add("max_stock", "max_stock must not be less than min_stock")
	}
	if in.UnitPrice.IsNegative() {
		v.Add("unit_price", "unit_price must not be negative")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := l.now()
	item := Item{
		ID:            strconv.Itoa(l.nextID),
		Name:          strings.TrimSpace(in.Name),
		Category:      category,
		CurrentStock:  in.CurrentStock,
		MinStock:      in.MinStock,
		MaxStock:      in.MaxStock,
		UnitPrice:     in.UnitPrice,
		LastRestocked: now,
	}
	if in.Status == StatusDiscontinued {
		item.Status = StatusDiscontinued
	} else {
		item.rederive()
	}
	l.nextID++
	l.items[item.ID] = item
	l.order = append(l.order, item.ID)
	l.record(item.ID, MovementAdd, in.CurrentStock, 0, item.CurrentStock, now)

	l.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Int("stock", item.CurrentStock).Msg("inventory item added")
	return &item, nil
}

func (l *Ledger) Get(_ context.Context, id string) (*Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.items[id]
	if !ok {
		return nil, apperr.NotFound("inventory item", id)
	}
	return &item, nil
}

func (l *Ledger) Restock(_ context.Context, id string, qty int) (*Item, error) {
	if qty <= 0 {
		return nil, apperr.NewValidation("quantity", "quantity must be greater than zero")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return nil, apperr.NotFound("inventory item", id)
	}
	if qty > math.MaxInt-item.CurrentStock {
		return nil, apperr.NewValidation("quantity", fmt.Sprintf("quantity %d would overflow the stock of %s", qty, item.Name))
	}
	now := l.now()
	before := item.CurrentStock
	item.CurrentStock += qty
	item.LastRestocked = now
	item.rederive()
	l.items[id] = item
	l.record(id, MovementRestock, qty, before, item.CurrentStock, now)

	l.logger.Info().Str("item_id", id).Int("quantity", qty).Int("stock", item.CurrentStock).Str("status", string(item.Status)).Msg("inventory restocked")
	return &item, nil
}

// Dispense takes qty out of stock. Stock never drops below zero; asking for
// more than is on hand still succeeds and comes back with a warning.
func (l *Ledger) Dispense(_ context.Context, id string, qty int) (*Item, *apperr.Warning, error) {
	if qty <= 0 {
		return nil, nil, apperr.NewValidation("quantity", "quantity must be greater than zero")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return nil, nil, apperr.NotFound("inventory item", id)
	}
	before := item.CurrentStock
	var warning *apperr.Warning
	if qty > before {
		warning = &apperr.Warning{
			Code:    "insufficient_stock",
			Message: fmt.Sprintf("requested %d of %s but only %d in stock; stock set to 0", qty, item.Name, before),
		}
		l.logger.Warn().Str("item_id", id).Int("requested", qty).Int("stock", before).Msg("dispense exceeds stock")
	}
	item.CurrentStock = before - qty
	if item.CurrentStock < 0 {
		item.CurrentStock = 0
	}
	item.rederive()
	l.items[id] = item
	l.record(id, MovementDispense, qty, before, item.CurrentStock, l.now())

	l.logger.Info().Str("item_id", id).Int("quantity", qty).Int("stock", item.CurrentStock).Str("status", string(item.Status)).Msg("inventory dispensed")
	return &item, warning, nil
}

func (l *Ledger) Remove(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.items[id]; !ok {
		return apperr.NotFound("inventory item", id)
	}
	delete(l.items, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.logger.Info().Str("item_id", id).Msg("inventory item removed")
	return nil
}

// Filter returns the items matching f in the order they were added.
func (l *Ledger) Filter(_ context.Context, f Filter) []*Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	category := strings.TrimSpace(f.Category)
	status := strings.TrimSpace(f.Status)
	needle := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	out := make([]*Item, 0, len(l.order))
	for _, id := range l.order {
		item := l.items[id]
		if category != "" && category != "all" && !strings.EqualFold(item.Category, category) {
			continue
		}
		if status != "" && status != "all" && string(item.Status) != status {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		out = append(out, &item)
	}
	return out
}

// Discontinue marks an item discontinued. It stays discontinued through
// later stock changes until Reinstate.
func (l *Ledger) Discontinue(_ context.Context, id string) (*Item, error) {
	return l.setStatus(id, func(item *Item) { item.Status = StatusDiscontinued })
}

// Reinstate clears a discontinued mark and derives the status from stock.
func (l *Ledger) Reinstate(_ context.Context, id string) (*Item, error) {
	return l.setStatus(id, func(item *Item) {
		item.Status = DeriveStatus(item.CurrentStock, item.MinStock)
	})
}

func (l *Ledger) setStatus(id string, fn func(*Item)) (*Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[id]
	if !ok {
		return nil, apperr.NotFound("inventory item", id)
	}
	fn(&item)
	l.items[id] = item
	l.logger.Info().Str("item_id", id).Str("status", string(item.Status)).Msg("inventory status set")
	return &item, nil
}

func (l *Ledger) Categories(_ context.Context) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.categories...)
}

func (l *Ledger) AddCategory(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.NewValidation("name", "name is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.findCategory(name); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, name)
	}
	l.categories = append(l.categories, name)
	return nil
}

// findCategory returns the stored spelling of name. Callers hold l.mu.
func (l *Ledger) findCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range l.categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return name, false
}

// Movements lists the stock changes for itemID, oldest first. An empty
// itemID lists every movement.
func (l *Ledger) Movements(_ context.Context, itemID string) []Movement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Movement, 0)
	for _, m := range l.movements {
		if itemID == "" || m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out
}

// record appends to the movement log. Callers hold l.mu.
func (l *Ledger) record(itemID string, kind MovementKind, qty, before, after int, at time.Time) {
	l.movements = append(l.movements, Movement{
		ID:       uuid.New().String(),
		ItemID:   itemID,
		Kind:     kind,
		Quantity: qty,
		Before:   before,
		After:    after,
		At:       at,
	})
}
