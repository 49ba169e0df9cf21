// Package compose renders personalised display pictures: an event flyer
// with the attendee's photo clipped into the flyer's hole and their text in
// the flyer's text boxes.
//
// A Session holds the state of one compositing view. Loads are keyed by
// request ids so a slow response never overwrites a newer one, and a
// Surface snapshot of the session is what gets rasterised and exported.
package compose

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/layout"
)

const (
	// DefaultContainerWidth is used until the caller reports one.
	DefaultContainerWidth = 600
	// DefaultMaxHeight caps the on-screen canvas height.
	DefaultMaxHeight = 600
)

// Options configure a Session.
type Options struct {
	ContainerWidth float64
	MaxHeight      float64
	Fonts          *FontManager
}

// Session is the compositing state for one event view. All methods are safe
// for concurrent use.
type Session struct {
	mu sync.Mutex

	containerW float64
	maxH       float64
	fonts      *FontManager

	event *event.Event
	texts []string
	flyer image.Image
	photo image.Image
	scale float64

	// epoch changes on SetEvent and Reset; loads started in an older
	// epoch are discarded.
	epoch    uint64
	nextID   uint64
	flyerReq uint64
	photoReq uint64
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	if opts.ContainerWidth <= 0 {
		opts.ContainerWidth = DefaultContainerWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = DefaultMaxHeight
	}
	return &Session{
		containerW: opts.ContainerWidth,
		maxH:       opts.MaxHeight,
		fonts:      opts.Fonts,
	}
}

// SetEvent switches the session to e. Pending loads are invalidated and the
// flyer, photo and text inputs are cleared. e is normalised on a copy.
func (s *Session) SetEvent(e *event.Event) {
	var ev *event.Event
	if e != nil {
		c := *e
		c.ImagePlaceholders = append([]event.ImagePlaceholder(nil), e.ImagePlaceholders...)
		c.TextPlaceholders = append([]event.TextPlaceholder(nil), e.TextPlaceholders...)
		event.Normalize(&c)
		ev = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.event = ev
}

// Event returns the current event, or nil.
func (s *Session) Event() *event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

// LoadFlyer loads the flyer from src. The result is applied only if no
// newer flyer load, SetEvent or Reset happened meanwhile; otherwise
// ErrStaleLoad is returned and the session is untouched. Failures wrap
// ErrImageLoad and keep the previous flyer.
func (s *Session) LoadFlyer(ctx context.Context, src ImageSource) error {
	id, epoch := s.begin(&s.flyerReq)
	img, err := load(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flyerReq != id || s.epoch != epoch {
		Logger().Debug("discarding stale flyer load", "request", id)
		return fmt.Errorf("flyer request %d: %w", id, ErrStaleLoad)
	}
	if err != nil {
		return fmt.Errorf("load flyer: %w", err)
	}

	b := img.Bounds()
	scale, err := layout.Scale(float64(b.Dx()), float64(b.Dy()), s.containerW, s.maxH)
	if err != nil {
		return fmt.Errorf("load flyer: %w: %w", ErrImageLoad, err)
	}
	s.flyer = img
	s.scale = scale
	Logger().Info("flyer applied", "request", id, "w", b.Dx(), "h", b.Dy(), "scale", scale)
	return nil
}

// LoadPhoto loads the attendee photo from src under the same rules as
// LoadFlyer.
func (s *Session) LoadPhoto(ctx context.Context, src ImageSource) error {
	id, epoch := s.begin(&s.photoReq)
	img, err := load(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photoReq != id || s.epoch != epoch {
		Logger().Debug("discarding stale photo load", "request", id)
		return fmt.Errorf("photo request %d: %w", id, ErrStaleLoad)
	}
	if err != nil {
		return fmt.Errorf("load photo: %w", err)
	}
	s.photo = img
	Logger().Info("photo applied", "request", id, "w", img.Bounds().Dx(), "h", img.Bounds().Dy())
	return nil
}

// begin registers a new load request of one kind.
func (s *Session) begin(req *uint64) (id, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	*req = s.nextID
	return s.nextID, s.epoch
}

func load(ctx context.Context, src ImageSource) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no image source", ErrImageLoad)
	}
	img, err := src(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageLoad, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrImageLoad)
	}
	return img, nil
}

// SetText sets the input for text placeholder i. The raw input is stored;
// transforms apply at render time.
func (s *Session) SetText(i int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event == nil {
		return fmt.Errorf("set text: no event: %w", ErrValidation)
	}
	if i < 0 || i >= len(s.event.TextPlaceholders) {
		return fmt.Errorf("set text: index %d out of range [0,%d): %w", i, len(s.event.TextPlaceholders), ErrValidation)
	}
	for len(s.texts) <= i {
		s.texts = append(s.texts, "")
	}
	s.texts[i] = text
	return nil
}

// SetTexts replaces all text inputs positionally. Inputs beyond the number
// of text placeholders are ignored.
func (s *Session) SetTexts(texts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append([]string(nil), texts...)
}

// Texts returns a copy of the raw text inputs.
func (s *Session) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// SetContainerWidth recomputes the scale for a resized container.
func (s *Session) SetContainerWidth(w float64) error {
	if w <= 0 {
		return fmt.Errorf("container width %g: %w", w, ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerW = w
	if s.flyer == nil {
		return nil
	}
	b := s.flyer.Bounds()
	scale, err := layout.Scale(float64(b.Dx()), float64(b.Dy()), s.containerW, s.maxH)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	s.scale = scale
	return nil
}

// Scale returns the current design-to-render factor, 0 without a flyer.
func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// CanvasSize returns the on-screen canvas size, 0×0 without a flyer.
func (s *Session) CanvasSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flyer == nil {
		return 0, 0
	}
	b := s.flyer.Bounds()
	return layout.CanvasSize(float64(b.Dx()), float64(b.Dy()), s.scale)
}

// HasFlyer reports whether a flyer is loaded.
func (s *Session) HasFlyer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flyer != nil
}

// HasPhoto reports whether a photo is loaded.
func (s *Session) HasPhoto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.photo != nil
}

// ClearPhoto removes the photo and discards pending photo loads.
func (s *Session) ClearPhoto() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photo = nil
	s.nextID++
	s.photoReq = s.nextID
}

// Reset tears the session down to its initial state. In-flight loads are
// discarded when they complete.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.event = nil
}

func (s *Session) clearLocked() {
	s.epoch++
	s.flyer = nil
	s.photo = nil
	s.texts = nil
	s.scale = 0
}

// Surface snapshots the session for rendering.
func (s *Session) Surface() *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaceLocked()
}

func (s *Session) surfaceLocked() *Surface {
	return &Surface{
		Event: s.event,
		Flyer: s.flyer,
		Photo: s.photo,
		Texts: append([]string(nil), s.texts...),
		Scale: s.scale,
		Fonts: s.fonts,
	}
}

// Render rasterises the current state at pixelRatio, for previews.
func (s *Session) Render(pixelRatio float64) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surfaceLocked().Render(pixelRatio)
}

// Export rasterises and encodes the current state. The session lock is
// held throughout so the export never observes a half-applied load.
func (s *Session) Export(opts ExportOptions) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	art, err := s.surfaceLocked().Export(opts)
	if err != nil {
		return nil, err
	}
	Logger().Info("exported", "mime", art.MIME, "w", art.Width, "h", art.Height, "bytes", len(art.Data))
	return art, nil
}

// HasText reports whether any text input is non-blank.
func (s *Session) HasText() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}
