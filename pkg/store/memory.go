package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xob0t/eventdp/pkg/event"
)

// MemoryRepository is an in-process EventRepository used when no database
// is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[string]event.Event
	order  []string // newest first
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[string]event.Event)}
}

func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]event.Event, error) {
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if offset >= len(r.order) {
		return []event.Event{}, nil
	}
	ids := r.order[offset:min(offset+limit, len(r.order))]
	out := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.events[id])
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (r *MemoryRepository) Create(_ context.Context, e *event.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[e.ID]; exists {
		return fmt.Errorf("event %s already exists", e.ID)
	}
	r.events[e.ID] = *e
	r.order = append([]string{e.ID}, r.order...)
	return nil
}

func (r *MemoryRepository) SetFlyerURL(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	e.FlyerURL = url
	r.events[id] = e
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

func (r *MemoryRepository) Close() {}
