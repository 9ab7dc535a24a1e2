package consultation

import (
	"context"
	"sync"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id string) (*Consultation, error)
	Replace(ctx context.Context, c *Consultation) error
	List(ctx context.Context) ([]*Consultation, error)
}

type memRepo struct {
	mu    sync.RWMutex
	byID  map[string]Consultation
	order []string
}

func NewMemRepo() Repository {
	return &memRepo{byID: make(map[string]Consultation)}
}

func (r *memRepo) Create(_ context.Context, c *Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return apperr.NewValidation("id", "id already exists")
	}
	r.byID[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("consultation", id)
	}
	return &c, nil
}

func (r *memRepo) Replace(_ context.Context, c *Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return apperr.NotFound("consultation", c.ID)
	}
	r.byID[c.ID] = *c
	return nil
}

// List returns consultations in insertion order.
func (r *memRepo) List(_ context.Context) ([]*Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Consultation, 0, len(r.order))
	for _, id := range r.order {
		c := r.byID[id]
		out = append(out, &c)
	}
	return out, nil
}
