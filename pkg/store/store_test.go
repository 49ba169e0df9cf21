package store

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/eventdp/pkg/event"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ── Events ──

func TestMemoryRepositoryCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	e := event.ExampleEvent()
	e.ID = ""
	require.NoError(t, repo.Create(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.ImagePlaceholders, got.ImagePlaceholders)

	assert.Error(t, repo.Create(ctx, e), "duplicate id")

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &event.Event{ID: id, Title: id}))
	}

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID, "newest first")
	assert.Equal(t, "b", page[1].ID)

	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)

	page, err = repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryRepositorySetFlyerURL(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, &event.Event{ID: "a", Title: "A"}))

	require.NoError(t, repo.SetFlyerURL(ctx, "a", "/api/v1/events/a/flyer"))
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/events/a/flyer", got.FlyerURL)

	assert.ErrorIs(t, repo.SetFlyerURL(ctx, "zzz", "x"), ErrNotFound)
}

func TestClampPage(t *testing.T) {
	l, o := clampPage(0, -5)
	assert.Equal(t, DefaultLimit, l)
	assert.Equal(t, 0, o)
	l, _ = clampPage(1000, 0)
	assert.Equal(t, MaxLimit, l)
}

func TestPostgresRepository(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, dbURL)
	require.NoError(t, err)
	repo := NewPostgresRepository(pool)
	defer repo.Close()
	require.NoError(t, repo.Migrate(ctx))

	e := event.ExampleEvent()
	e.ID = ""
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.TextPlaceholders, got.TextPlaceholders)

	require.NoError(t, repo.SetFlyerURL(ctx, e.ID, "flyer.png"))
	assert.ErrorIs(t, repo.SetFlyerURL(ctx, "no-such-event", "x"), ErrNotFound)
}

// ── Flyers ──

func TestFlyerVariants(t *testing.T) {
	fs, err := NewFlyerStore(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	original := pngBytes(t, 1200, 600)
	require.NoError(t, fs.Save("ev-1", original))

	full, err := fs.Variant("ev-1", SizeFull)
	require.NoError(t, err)
	assert.Equal(t, original, full)

	thumb, err := fs.Variant("ev-1", SizeThumb)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
	assert.True(t, cacheExists(fs.GetCachePath("ev-1", SizeThumb)))

	// A new upload invalidates the cached variant.
	require.NoError(t, fs.Save("ev-1", pngBytes(t, 100, 100)))
	assert.False(t, cacheExists(fs.GetCachePath("ev-1", SizeThumb)))

	_, err = fs.Variant("ev-1", "huge")
	assert.Error(t, err)
}

func TestFlyerStoreRejectsBadInput(t *testing.T) {
	fs, err := NewFlyerStore(t.TempDir(), t.TempDir())
	require.NoError(t, err)

	assert.Error(t, fs.Save("ev-1", []byte("not an image")))
	assert.Error(t, fs.Save("../escape", pngBytes(t, 1, 1)))

	_, err = fs.Original("ev-2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.Original("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptimizeImageKeepsSmallImages(t *testing.T) {
	out, err := OptimizeImage(pngBytes(t, 120, 80), SizeMedium)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
}

// ── Artifacts ──

func TestLocalArtifactStore(t *testing.T) {
	ctx := context.Background()
	as, err := NewLocalArtifactStore(t.TempDir())
	require.NoError(t, err)

	data := pngBytes(t, 4, 4)
	id, err := as.Save(ctx, "image/png", data)
	require.NoError(t, err)

	got, mime, err := as.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, got)

	_, err = as.Save(ctx, "image/gif", data)
	assert.Error(t, err)

	_, _, err = as.Open(ctx, "../secret")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = as.Open(ctx, "6f1c5b9e-8f7a-4d0e-9b1a-2c3d4e5f6a7b")
	assert.ErrorIs(t, err, ErrNotFound)
}
