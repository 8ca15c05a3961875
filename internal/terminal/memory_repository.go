package terminal

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu        sync.RWMutex
	terminals map[string]Record
}

// NewMemoryRepository builds an in-memory terminal store for tests and local
// development.
func NewMemoryRepository() Repository {
	return &memoryRepository{terminals: make(map[string]Record)}
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.terminals[rec.ID]; exists {
		return ErrDuplicateID
	}
	r.terminals[rec.ID] = rec.clone()
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.terminals[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.clone(), nil
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id string, snap LoginSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.terminals[id]
	if !ok {
		return ErrNotFound
	}
	rec.LastLogin = &snap
	r.terminals[id] = rec
	return nil
}

func (r *memoryRepository) BindHardware(_ context.Context, id, hardwareID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.terminals[id]
	if !ok {
		return ErrNotFound
	}
	switch rec.BoundHardwareID {
	case hardwareID:
		return nil
	case "":
		rec.BoundHardwareID = hardwareID
		r.terminals[id] = rec
		return nil
	default:
		return ErrAlreadyBound
	}
}

func (r *memoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.terminals[id]
	if !ok {
		return ErrNotFound
	}
	rec.Active = active
	r.terminals[id] = rec
	return nil
}
