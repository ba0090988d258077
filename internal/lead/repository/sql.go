package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lead-capture/internal/lead/domain"
)

const (
	insertLeadSQL = `INSERT INTO leads (id, name, email, phone, message, property, submitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	listLeadsSQL = `SELECT id, name, email, phone, message, property, submitted_at
FROM leads ORDER BY submitted_at DESC, id DESC`
)

// leadRow is the leads table row as scanned by sqlx.
type leadRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	Phone       string         `db:"phone"`
	Message     sql.NullString `db:"message"`
	Property    sql.NullString `db:"property"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

// SQLRepository persists leads through sqlx. It works with the pgx (Postgres) and sqlite drivers;
// queries are written with '?' and rebound for the driver in use.
//
// Timestamps are truncated to microseconds (the Postgres timestamptz resolution) and are strictly
// increasing per repository. Rows written by separate processes can still share a timestamp; those
// fall back to id order.
type SQLRepository struct {
	db  *sqlx.DB
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewSQLRepository returns a lead repository backed by db.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts the lead on a dedicated pooled connection, released on every return path.
func (r *SQLRepository) Create(ctx context.Context, n domain.NewLead) (*domain.Lead, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %v", domain.ErrPersistence, err)
	}
	defer conn.Close()

	l := &domain.Lead{
		ID:          uuid.New().String(),
		Name:        n.Name,
		Email:       n.Email,
		Phone:       n.Phone,
		Message:     n.Message,
		Property:    n.Property,
		SubmittedAt: r.nextTimestamp(),
	}
	_, err = conn.ExecContext(ctx, conn.Rebind(insertLeadSQL),
		l.ID, l.Name, l.Email, l.Phone,
		nullString(l.Message), nullString(l.Property),
		l.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert lead: %v", domain.ErrPersistence, err)
	}
	return l, nil
}

func (r *SQLRepository) nextTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.now().Truncate(time.Microsecond)
	if !at.After(r.last) {
		at = r.last.Add(time.Microsecond)
	}
	r.last = at
	return at
}

// ListAll returns all leads newest first.
func (r *SQLRepository) ListAll(ctx context.Context) ([]*domain.Lead, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %v", domain.ErrPersistence, err)
	}
	defer conn.Close()

	var rows []leadRow
	if err := conn.SelectContext(ctx, &rows, conn.Rebind(listLeadsSQL)); err != nil {
		return nil, fmt.Errorf("%w: list leads: %v", domain.ErrPersistence, err)
	}
	out := make([]*domain.Lead, 0, len(rows))
	for i := range rows {
		out = append(out, rowToDomain(&rows[i]))
	}
	return out, nil
}

func rowToDomain(row *leadRow) *domain.Lead {
	l := &domain.Lead{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone,
		SubmittedAt: row.SubmittedAt.UTC(),
	}
	if row.Message.Valid {
		l.Message = row.Message.String
	}
	if row.Property.Valid {
		l.Property = row.Property.String
	}
	return l
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
