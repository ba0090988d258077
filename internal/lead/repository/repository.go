package repository

import (
	"context"

	"lead-capture/internal/lead/domain"
)

// Repository defines persistence for leads. There is no update or delete.
type Repository interface {
	// Create assigns ID and SubmittedAt, persists the lead and returns the stored entity.
	// Failures wrap domain.ErrPersistence.
	Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error)
	// ListAll returns every lead ordered by SubmittedAt descending; empty (non-nil) when there are none.
	ListAll(ctx context.Context) ([]*domain.Lead, error)
}
