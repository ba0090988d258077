package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"lead-capture/internal/lead/domain"
)

// MemoryRepository keeps leads in process memory. Used for local development and tests.
type MemoryRepository struct {
	mu    sync.Mutex
	leads []*domain.Lead
	last  time.Time
	now   func() time.Time
}

// NewMemoryRepository returns an empty in-memory lead store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a copy of the lead. SubmittedAt is strictly increasing within this repository.
func (r *MemoryRepository) Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.now()
	if !at.After(r.last) {
		at = r.last.Add(time.Nanosecond)
	}
	r.last = at
	l := &domain.Lead{
		ID:          uuid.New().String(),
		Name:        n.Name,
		Email:       n.Email,
		Phone:       n.Phone,
		Message:     n.Message,
		Property:    n.Property,
		SubmittedAt: at,
	}
	r.leads = append(r.leads, l)
	out := *l
	return &out, nil
}

// ListAll returns copies of all leads, newest first.
func (r *MemoryRepository) ListAll(ctx context.Context) ([]*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Lead, 0, len(r.leads))
	for i := len(r.leads) - 1; i >= 0; i-- {
		l := *r.leads[i]
		out = append(out, &l)
	}
	return out, nil
}

// Count returns the number of stored leads.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}
