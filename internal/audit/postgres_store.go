package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists attempts in the login_attempts table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed attempt store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts an attempt.
func (s *PostgresStore) Append(ctx context.Context, a Attempt) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("attempt id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO login_attempts
        (id, action, terminal_id, hardware_id, outcome, reason, request_id, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(a.Action), a.TerminalID, a.HardwareID, a.Outcome, a.Reason, a.RequestID, a.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

// ListByTerminal returns the newest attempts first.
func (s *PostgresStore) ListByTerminal(ctx context.Context, terminalID string, limit int) ([]Attempt, error) {
	rows, err := s.db.Query(ctx, `SELECT id, action, terminal_id, hardware_id, outcome, reason, request_id, occurred_at
        FROM login_attempts WHERE terminal_id = $1 ORDER BY occurred_at DESC LIMIT $2`, terminalID, limit)
	if err != nil {
		return nil, fmt.Errorf("query login attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a      Attempt
			id     uuid.UUID
			action string
		)
		if err := rows.Scan(&id, &action, &a.TerminalID, &a.HardwareID, &a.Outcome, &a.Reason, &a.RequestID, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan login attempt: %w", err)
		}
		a.ID = id.String()
		a.Action = Action(action)
		a.OccurredAt = a.OccurredAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
