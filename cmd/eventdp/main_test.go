package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/eventdp/pkg/generator"
)

func TestInitValidateRender(t *testing.T) {
	dir := t.TempDir()
	eventPath := filepath.Join(dir, "event.json")

	require.NoError(t, runInit([]string{"--event", eventPath}))
	assert.FileExists(t, filepath.Join(dir, "flyer.png"))
	require.NoError(t, runValidate([]string{"--event", eventPath}))

	photo := filepath.Join(dir, "me.png")
	require.NoError(t, generator.Generate(photo, generator.NewSolidImage(40, 40, color.RGBA{255, 0, 0, 255}), generator.Config{}))

	out := filepath.Join(dir, "dp.png")
	require.NoError(t, run([]string{"-o", out, "--event", eventPath, "--photo", photo, "--text", "jane doe"}))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	// 1200×800 flyer at scale 0.5 and pixel ratio 2.
	assert.Equal(t, image.Rect(0, 0, 1200, 800), img.Bounds())

	// The circle hole is centred on (850,250).
	r, g, b, _ := img.At(850, 250).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
	assert.Less(t, b, uint32(0x1000))
}

func TestRenderJPEGByExtension(t *testing.T) {
	dir := t.TempDir()
	eventPath := filepath.Join(dir, "event.json")
	require.NoError(t, runInit([]string{"--event", eventPath}))

	out := filepath.Join(dir, "dp.jpg")
	require.NoError(t, run([]string{"-o", out, "--event", eventPath, "--ratio", "1"}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	eventPath := filepath.Join(dir, "event.json")
	require.NoError(t, runInit([]string{"--event", eventPath}))

	assert.Error(t, run([]string{"--event", eventPath}), "missing output")
	assert.Error(t, run([]string{"-o", filepath.Join(dir, "x.gif"), "--event", eventPath}), "unsupported format")
	assert.Error(t, run([]string{"-o", filepath.Join(dir, "x.png"), "--event", eventPath, "--flyer", "https://example.com/f.png"}))
	assert.Error(t, run([]string{"-o", filepath.Join(dir, "x.png"), "--event", eventPath, "--photo", filepath.Join(dir, "missing.jpg")}))
	assert.Error(t, runValidate(nil))
}
