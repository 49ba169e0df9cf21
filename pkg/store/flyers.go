// flyers.go — Flyer originals on disk and their resized JPEG variants.
package store

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"

	"github.com/disintegration/imaging"
)

// Flyer sizes served to clients.
const (
	SizeThumb  = "thumb"
	SizeMedium = "medium"
	SizeFull   = "full"
)

const (
	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// FlyerStore keeps one original flyer per event and caches resized
// variants next to it.
type FlyerStore struct {
	dir      string
	cacheDir string
}

// NewFlyerStore creates both directories if needed.
func NewFlyerStore(dir, cacheDir string) (*FlyerStore, error) {
	for _, d := range []string{dir, cacheDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return &FlyerStore{dir: dir, cacheDir: cacheDir}, nil
}

func (s *FlyerStore) originalPath(eventID string) string {
	return filepath.Join(s.dir, eventID+".img")
}

// GetCachePath returns the cache file path for an event flyer variant.
func (s *FlyerStore) GetCachePath(eventID, size string) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("flyer_%s_%s.jpg", eventID, size))
}

// Save stores the original flyer bytes and drops stale cached variants.
// The bytes must decode as an image.
func (s *FlyerStore) Save(eventID string, data []byte) error {
	if !safeID.MatchString(eventID) {
		return fmt.Errorf("invalid event id %q", eventID)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("flyer is not an image: %w", err)
	}
	if err := os.WriteFile(s.originalPath(eventID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write flyer: %w", err)
	}
	for _, size := range []string{SizeThumb, SizeMedium} {
		_ = os.Remove(s.GetCachePath(eventID, size))
	}
	logger().Info("flyer stored", "event", eventID, "bytes", len(data))
	return nil
}

// Original returns the stored flyer bytes.
func (s *FlyerStore) Original(eventID string) ([]byte, error) {
	if !safeID.MatchString(eventID) {
		return nil, fmt.Errorf("flyer %s: %w", eventID, ErrNotFound)
	}
	data, err := os.ReadFile(s.originalPath(eventID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("flyer %s: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flyer: %w", err)
	}
	return data, nil
}

// Variant returns the flyer at size (thumb, medium or full). Resized
// variants are JPEG and cached on first use; full returns the original.
func (s *FlyerStore) Variant(eventID, size string) ([]byte, error) {
	if size == "" || size == SizeFull {
		return s.Original(eventID)
	}
	if size != SizeThumb && size != SizeMedium {
		return nil, fmt.Errorf("unknown flyer size %q", size)
	}

	cachePath := s.GetCachePath(eventID, size)
	if cacheExists(cachePath) {
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	original, err := s.Original(eventID)
	if err != nil {
		return nil, err
	}
	optimized, err := OptimizeImage(original, size)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(cachePath, optimized, 0o644); err != nil {
		logger().Warn("failed to cache flyer variant", "path", cachePath, "error", err)
	}
	return optimized, nil
}

func cacheExists(cachePath string) bool {
	_, err := os.Stat(cachePath)
	return err == nil
}

// OptimizeImage re-encodes imageData as JPEG no larger than the size's
// max dimension. Unknown sizes use medium.
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	if size == SizeThumb {
		maxDim, quality = maxSizeThumb, qualityThumb
	}

	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
