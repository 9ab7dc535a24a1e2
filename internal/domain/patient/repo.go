package patient

import (
	"context"
	"sync"

	"github.com/eternalbranch/clinic/internal/platform/apperr"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	// Replace swaps the stored record for p wholesale.
	Replace(ctx context.Context, p *Patient) error
	List(ctx context.Context) ([]*Patient, error)
}

// memRepo keeps patients in insertion order. Records go in and come out as
// copies so callers never share state with the store.
type memRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Patient
	order []string
}

func NewMemRepo() Repository {
	return &memRepo{byID: make(map[string]*Patient)}
}

func (r *memRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID]; exists {
		return apperr.NewValidation("id", "id already exists")
	}
	r.byID[p.ID] = p.clone()
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("patient", id)
	}
	return p.clone(), nil
}

func (r *memRepo) Replace(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return apperr.NotFound("patient", p.ID)
	}
	r.byID[p.ID] = p.clone()
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].clone())
	}
	return out, nil
}
