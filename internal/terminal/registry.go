package terminal

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidHardwareID = errors.New("hardware id is required")

// Registry is the single owner of terminal record mutations. It normalizes
// identifiers before delegating to the backing Repository.
type Registry struct {
	repo Repository
}

// NewRegistry wraps repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// FindByID returns the record for id or ErrNotFound.
func (r *Registry) FindByID(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrNotFound
	}
	return r.repo.FindByID(ctx, id)
}

// Create stores a new record, failing with ErrDuplicateID on collision.
func (r *Registry) Create(ctx context.Context, rec Record) error {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.BoundHardwareID = strings.TrimSpace(rec.BoundHardwareID)
	return r.repo.Create(ctx, rec)
}

// UpdateLastLogin records the snapshot of a successful login.
func (r *Registry) UpdateLastLogin(ctx context.Context, id string, snap LoginSnapshot) error {
	return r.repo.UpdateLastLogin(ctx, strings.TrimSpace(id), snap)
}

// BindHardware binds an unbound terminal to hardwareID. It is a no-op when
// already bound to the same id and fails with ErrAlreadyBound otherwise.
func (r *Registry) BindHardware(ctx context.Context, id, hardwareID string) error {
	hardwareID = strings.TrimSpace(hardwareID)
	if hardwareID == "" {
		return ErrInvalidHardwareID
	}
	return r.repo.BindHardware(ctx, strings.TrimSpace(id), hardwareID)
}

// SetActive enables or disables a terminal.
func (r *Registry) SetActive(ctx context.Context, id string, active bool) error {
	return r.repo.SetActive(ctx, strings.TrimSpace(id), active)
}
