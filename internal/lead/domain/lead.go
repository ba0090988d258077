package domain

import (
	"errors"
	"time"
)

// ErrPersistence is wrapped by every Lead Store failure (store unreachable or write rejected).
// Callers must not assume a partial write is visible when it is returned.
var ErrPersistence = errors.New("lead store unavailable")

// Lead is a prospective customer's contact submission.
type Lead struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message,omitempty"`
	Property    string    `json:"property,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// NewLead holds the normalized fields handed to the store; ID and SubmittedAt are assigned by the store.
type NewLead struct {
	Name     string
	Email    string
	Phone    string
	Message  string
	Property string
}

// Validate checks the persistence invariants: name, email and phone must be present.
// Format is the job of the validation rules; this only guards the store.
func (n *NewLead) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}
	if n.Email == "" {
		return errors.New("email is required")
	}
	if n.Phone == "" {
		return errors.New("phone is required")
	}
	return nil
}
