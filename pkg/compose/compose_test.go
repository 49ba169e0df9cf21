package compose

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/generator"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func solid(w, h int, c color.RGBA) image.Image {
	return generator.NewSolidImage(w, h, c)
}

func photoEvent(shape event.Shape, x, y, w, h float64) *event.Event {
	return &event.Event{
		ID:    "ev-1",
		Title: "Test",
		ImagePlaceholders: []event.ImagePlaceholder{
			{X: x, Y: y, Width: w, Height: h, HoleShape: shape},
		},
		TextPlaceholders: []event.TextPlaceholder{
			{X: 10, Y: 10, Width: 120, Height: 30, FontSize: 20, Color: "#0000ff"},
			{X: 10, Y: 150, Width: 120, Height: 30, FontSize: 20, Color: "#0000ff"},
		},
	}
}

// session200 builds a session at scale 1 with a white 200×200 flyer.
func session200(t *testing.T, e *event.Event) *Session {
	t.Helper()
	s := NewSession(Options{ContainerWidth: 200, MaxHeight: 200})
	s.SetEvent(e)
	require.NoError(t, s.LoadFlyer(context.Background(), FromImage(solid(200, 200, white))))
	require.Equal(t, 1.0, s.Scale())
	return s
}

func isRed(c color.RGBA) bool   { return c.R > 200 && c.G < 60 && c.B < 60 }
func isWhite(c color.RGBA) bool { return c.R > 240 && c.G > 240 && c.B > 240 }

// ── Export ──

func TestExportWithoutFlyerIsCapabilityUnavailable(t *testing.T) {
	s := NewSession(Options{})
	s.SetEvent(event.ExampleEvent())

	art, err := s.Export(ExportOptions{})
	assert.Nil(t, art)
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.Equal(t, KindCapabilityUnavailable, KindOf(err))
	assert.False(t, s.HasFlyer(), "state unchanged")
}

func TestExportAtPixelRatio(t *testing.T) {
	s := NewSession(Options{ContainerWidth: 600, MaxHeight: 600})
	s.SetEvent(event.ExampleEvent())
	require.NoError(t, s.LoadFlyer(context.Background(), FromImage(solid(1200, 800, white))))

	assert.Equal(t, 0.5, s.Scale())
	w, h := s.CanvasSize()
	assert.Equal(t, 600, w)
	assert.Equal(t, 400, h)

	art, err := s.Export(ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", art.MIME)
	assert.Equal(t, 1200, art.Width)
	assert.Equal(t, 800, art.Height)
	assert.True(t, strings.HasPrefix(art.DataURL(), "data:image/png;base64,"))

	decoded, err := png.Decode(bytes.NewReader(art.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 800), decoded.Bounds())

	art, err = s.Export(ExportOptions{PixelRatio: 1, Format: generator.JPEG})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", art.MIME)
	assert.Equal(t, 600, art.Width)
}

func TestExportRejectsNegativeRatio(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 10, 10))
	_, err := s.Export(ExportOptions{PixelRatio: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExportEncodeFailure(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 10, 10))
	surface := s.Surface()

	art, err := surface.Export(ExportOptions{PixelRatio: 1, Format: generator.Format("gif")})
	require.ErrorIs(t, err, ErrExport)
	assert.Nil(t, art)
	assert.Equal(t, KindExport, KindOf(err))

	art, err = surface.Export(ExportOptions{PixelRatio: 1, Format: generator.PNG})
	require.NoError(t, err)
	assert.Equal(t, "image/png", art.MIME)
	assert.Equal(t, 200, art.Width)
}

// ── Layers ──

func TestCirclePhotoIsClippedAroundDeclaredPoint(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeCircle, 100, 100, 80, 80))
	require.NoError(t, s.LoadPhoto(context.Background(), FromImage(solid(300, 200, red))))

	img, err := s.Render(1)
	require.NoError(t, err)
	assert.True(t, isRed(img.RGBAAt(100, 100)), "centre")
	assert.True(t, isRed(img.RGBAAt(66, 100)), "inside left")
	assert.True(t, isWhite(img.RGBAAt(139, 139)), "layer corner outside circle")
	assert.True(t, isWhite(img.RGBAAt(150, 150)), "beyond layer")
}

func TestBoxPhotoFillsPlaceholder(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 100, 60, 80, 40))
	require.NoError(t, s.LoadPhoto(context.Background(), FromImage(solid(50, 300, red))))

	img, err := s.Render(1)
	require.NoError(t, err)
	assert.True(t, isRed(img.RGBAAt(101, 61)))
	assert.True(t, isRed(img.RGBAAt(178, 98)))
	assert.True(t, isWhite(img.RGBAAt(98, 58)))
	assert.True(t, isWhite(img.RGBAAt(182, 102)))
}

func TestTrianglePhoto(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeTriangle, 0, 50, 100, 100))
	require.NoError(t, s.LoadPhoto(context.Background(), FromImage(solid(100, 100, red))))

	img, err := s.Render(1)
	require.NoError(t, err)
	assert.True(t, isRed(img.RGBAAt(50, 100)))
	assert.True(t, isWhite(img.RGBAAt(5, 55)))
	assert.True(t, isWhite(img.RGBAAt(95, 55)))
}

func TestPhotoLayerSkippedUntilLoaded(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 50, 50, 100, 100))
	img, err := s.Render(1)
	require.NoError(t, err)
	assert.True(t, isWhite(img.RGBAAt(100, 100)))
}

// A horizontal gradient makes the crop position visible.
func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 255 / (w - 1)), 0, 0, 255})
		}
	}
	return img
}

func TestCropDoesNotDependOnShape(t *testing.T) {
	photo := gradient(400, 100)

	box := session200(t, photoEvent(event.ShapeBox, 40, 40, 80, 80))
	require.NoError(t, box.LoadPhoto(context.Background(), FromImage(photo)))
	circle := session200(t, photoEvent(event.ShapeCircle, 40, 40, 80, 80))
	require.NoError(t, circle.LoadPhoto(context.Background(), FromImage(photo)))

	bi, err := box.Render(1)
	require.NoError(t, err)
	ci, err := circle.Render(1)
	require.NoError(t, err)

	// The circle layer sits r=40 up and left of the box layer.
	for _, p := range []image.Point{{80, 80}, {60, 80}, {100, 80}, {80, 100}} {
		assert.Equal(t, bi.RGBAAt(p.X, p.Y), ci.RGBAAt(p.X-40, p.Y-40), "point %v", p)
	}
}

// ── Text ──

func TestBlankTextRendersNothing(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 150, 150, 10, 10))
	plain, err := s.Render(1)
	require.NoError(t, err)

	s.SetTexts([]string{"", "   "})
	blank, err := s.Render(1)
	require.NoError(t, err)
	assert.Equal(t, plain.Pix, blank.Pix)
}

func TestTextStaysNearItsBox(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 150, 150, 10, 10))
	plain, err := s.Render(1)
	require.NoError(t, err)

	require.NoError(t, s.SetText(0, "Hello there"))
	withText, err := s.Render(1)
	require.NoError(t, err)

	// Box 0 is (10,10,120,30); allow glyph overhang above and below.
	allowed := image.Rect(8, 4, 132, 46)
	changed := 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if plain.RGBAAt(x, y) != withText.RGBAAt(x, y) {
				changed++
				assert.True(t, image.Pt(x, y).In(allowed), "pixel %d,%d outside text box", x, y)
			}
		}
	}
	assert.Positive(t, changed)
}

func TestTextIndexIsPositional(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 150, 150, 10, 10))
	require.NoError(t, s.SetText(1, "second"))

	img, err := s.Render(1)
	require.NoError(t, err)

	var top, bottom int
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y) != white {
				if y < 100 {
					top++
				} else {
					bottom++
				}
			}
		}
	}
	assert.Zero(t, top)
	assert.Positive(t, bottom)
}

func TestTransformKeepsRawInput(t *testing.T) {
	e := photoEvent(event.ShapeBox, 150, 150, 10, 10)
	e.TextPlaceholders[0].TextTransform = "uppercase"
	s := session200(t, e)

	require.NoError(t, s.SetText(0, "jane"))
	_, err := s.Render(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"jane"}, s.Texts())
}

func TestSetTextValidatesIndex(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 10, 10))
	err := s.SetText(2, "x")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(err))

	s.Reset()
	assert.ErrorIs(t, s.SetText(0, "x"), ErrValidation)
}

// ── Session ──

func TestStaleFlyerLoadIsDiscarded(t *testing.T) {
	s := NewSession(Options{ContainerWidth: 100, MaxHeight: 100})
	s.SetEvent(photoEvent(event.ShapeBox, 0, 0, 10, 10))

	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(ctx context.Context) (image.Image, error) {
		close(started)
		<-release
		return solid(400, 400, red), nil
	}

	errc := make(chan error, 1)
	go func() { errc <- s.LoadFlyer(context.Background(), slow) }()
	<-started

	require.NoError(t, s.LoadFlyer(context.Background(), FromImage(solid(200, 100, white))))
	close(release)

	err := <-errc
	require.ErrorIs(t, err, ErrStaleLoad)
	assert.Equal(t, 0.5, s.Scale(), "newer flyer wins")
}

func TestSetEventInvalidatesPendingPhoto(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 10, 10))

	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(ctx context.Context) (image.Image, error) {
		close(started)
		<-release
		return solid(10, 10, red), nil
	}
	errc := make(chan error, 1)
	go func() { errc <- s.LoadPhoto(context.Background(), slow) }()
	<-started

	s.SetEvent(photoEvent(event.ShapeCircle, 0, 0, 10, 10))
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleLoad)
	assert.False(t, s.HasPhoto())
	assert.False(t, s.HasFlyer(), "SetEvent clears the flyer")
}

func TestResetDiscardsInFlightLoad(t *testing.T) {
	s := NewSession(Options{})
	release := make(chan struct{})
	started := make(chan struct{})
	slow := func(ctx context.Context) (image.Image, error) {
		close(started)
		<-release
		return solid(10, 10, red), nil
	}
	errc := make(chan error, 1)
	go func() { errc <- s.LoadFlyer(context.Background(), slow) }()
	<-started
	s.Reset()
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleLoad)
	assert.False(t, s.HasFlyer())
	assert.Nil(t, s.Event())
}

func TestFailedPhotoLoadKeepsPrevious(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 50, 50))
	require.NoError(t, s.LoadPhoto(context.Background(), FromImage(solid(10, 10, red))))

	err := s.LoadPhoto(context.Background(), FromBytes([]byte("not an image")))
	require.ErrorIs(t, err, ErrImageLoad)
	assert.Equal(t, KindImageLoad, KindOf(err))
	assert.True(t, s.HasPhoto())

	img, err := s.Render(1)
	require.NoError(t, err)
	assert.True(t, isRed(img.RGBAAt(25, 25)))
}

func TestFailingSourceWrapsCause(t *testing.T) {
	s := NewSession(Options{})
	cause := errors.New("network down")
	err := s.LoadFlyer(context.Background(), func(context.Context) (image.Image, error) { return nil, cause })
	assert.ErrorIs(t, err, ErrImageLoad)
	assert.ErrorIs(t, err, cause)
}

func TestClearPhoto(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 50, 50))
	require.NoError(t, s.LoadPhoto(context.Background(), FromImage(solid(10, 10, red))))
	s.ClearPhoto()
	assert.False(t, s.HasPhoto())
	assert.True(t, s.HasFlyer())
}

func TestContainerResizeRescales(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeBox, 0, 0, 50, 50))
	require.NoError(t, s.SetContainerWidth(100))
	assert.Equal(t, 0.5, s.Scale())
	assert.ErrorIs(t, s.SetContainerWidth(0), ErrValidation)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flyer.png")
	require.NoError(t, generator.Generate(path, solid(120, 60, blue), generator.Config{}))

	s := NewSession(Options{ContainerWidth: 60, MaxHeight: 600})
	require.NoError(t, s.LoadFlyer(context.Background(), FromFile(path)))
	assert.Equal(t, 0.5, s.Scale())

	err := s.LoadFlyer(context.Background(), FromFile(filepath.Join(t.TempDir(), "missing.png")))
	assert.ErrorIs(t, err, ErrImageLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession(Options{})
	err := s.LoadFlyer(ctx, FromBytes(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentLoadsAndExports(t *testing.T) {
	s := session200(t, photoEvent(event.ShapeCircle, 100, 100, 60, 60))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := s.LoadPhoto(context.Background(), func(context.Context) (image.Image, error) {
				time.Sleep(time.Millisecond)
				return solid(20, 20, red), nil
			})
			if err != nil {
				assert.ErrorIs(t, err, ErrStaleLoad)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := s.Export(ExportOptions{PixelRatio: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.True(t, s.HasPhoto())
}

// ── Errors and fonts ──

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, "", KindOf(errors.New("other")))
	assert.Equal(t, KindExport, KindOf(errors.Join(ErrExport, errors.New("disk full"))))
	assert.Equal(t, KindValidation, KindOf(event.Validate(&event.Event{})))
	assert.Equal(t, KindStale, KindOf(ErrStaleLoad))
}

func TestFontManagerUsesCustomFamily(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BrandSans-Bold.ttf"), gobold.TTF, 0o644))

	fm := NewFontManager(dir)
	face, err := fm.Face(`"Brand Sans", sans-serif`, true, false, 24)
	require.NoError(t, err)
	require.NoError(t, face.Close())

	face, err = fm.Face("Missing", false, true, 12)
	require.NoError(t, err)
	require.NoError(t, face.Close())
	assert.Len(t, fm.fonts, 2)
}

func TestPrimaryFamily(t *testing.T) {
	assert.Equal(t, "Open Sans", primaryFamily(" 'Open Sans', Arial"))
	assert.Equal(t, "", primaryFamily(""))
}
