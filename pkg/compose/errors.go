// errors.go — Failure kinds surfaced by the compositing engine.
package compose

import (
	"errors"

	"github.com/xob0t/eventdp/pkg/event"
)

var (
	// ErrImageLoad: a flyer or photo could not be fetched or decoded.
	ErrImageLoad = errors.New("image load failed")
	// ErrExport: rasterisation or encoding failed.
	ErrExport = errors.New("export failed")
	// ErrCapabilityUnavailable: the operation needs a flyer that is not loaded.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	// ErrValidation: caller input was rejected.
	ErrValidation = errors.New("validation failed")
	// ErrStaleLoad: a newer load or a reset superseded this one.
	ErrStaleLoad = errors.New("stale load discarded")
)

const (
	KindImageLoad             = "image_load_failure"
	KindExport                = "export_failure"
	KindCapabilityUnavailable = "capability_unavailable"
	KindValidation            = "validation_failure"
	KindStale                 = "stale_load"
)

// KindOf classifies err for callers that report failures by name.
// Unclassified errors return "".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, event.ErrInvalid):
		return KindValidation
	case errors.Is(err, ErrCapabilityUnavailable):
		return KindCapabilityUnavailable
	case errors.Is(err, ErrStaleLoad):
		return KindStale
	case errors.Is(err, ErrImageLoad):
		return KindImageLoad
	case errors.Is(err, ErrExport):
		return KindExport
	default:
		return ""
	}
}
