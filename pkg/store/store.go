// Package store persists events, flyer images, their thumbnails and
// exported DP artifacts.
package store

import (
	"context"
	"errors"

	"github.com/xob0t/eventdp/pkg/event"
)

// ErrNotFound is returned when an event or artifact does not exist.
var ErrNotFound = errors.New("not found")

// Default paging for List.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// EventRepository stores events. Implementations return ErrNotFound for
// unknown ids.
type EventRepository interface {
	List(ctx context.Context, limit, offset int) ([]event.Event, error)
	Get(ctx context.Context, id string) (*event.Event, error)
	// Create assigns ID and CreatedAt when empty.
	Create(ctx context.Context, e *event.Event) error
	SetFlyerURL(ctx context.Context, id, url string) error
	Ping(ctx context.Context) error
	Close()
}

// ArtifactStore keeps exported images.
type ArtifactStore interface {
	Save(ctx context.Context, mime string, data []byte) (string, error)
	Open(ctx context.Context, id string) ([]byte, string, error)
}

// clampPage normalises paging arguments.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return min(limit, MaxLimit), max(offset, 0)
}
