package prescription

import (
	"context"
	"sync"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id string) (*Prescription, error)
	Replace(ctx context.Context, p *Prescription) error
	List(ctx context.Context) ([]*Prescription, error)
}

type memRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Prescription
	order []string
}

func NewMemRepo() Repository {
	return &memRepo{byID: make(map[string]*Prescription)}
}

func (r *memRepo) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID]; exists {
		return apperr.NewValidation("id", "id already exists")
	}
	r.byID[p.ID] = p.clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("prescription", id)
	}
	return p.clone(), nil
}

func (r *memRepo) Replace(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return apperr.NotFound("prescription", p.ID)
	}
	r.byID[p.ID] = p.clone()
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Prescription, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].clone())
	}
	return out, nil
}
