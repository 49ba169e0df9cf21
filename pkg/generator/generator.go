// Package generator encodes rendered images to files, writers and data
// URLs.
//
// All output follows one pipeline: the caller hands over an image.Image and
// picks a format; encoding goes through imaging so PNG and JPEG share the
// same options.
package generator

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// DefaultJPEGQuality is used when Config.Quality is zero.
const DefaultJPEGQuality = 92

// Config holds parameters for encoding.
type Config struct {
	Format  Format // default PNG
	Quality int    // JPEG only, 1..100
}

// ParseFormat accepts "png", "jpg", "jpeg" (any case, optional dot).
// Empty input means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use png or jpeg", s)
	}
}

// MIME returns the media type for f.
func (f Format) MIME() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext returns the file extension for f, with the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Generate writes img to output. The format is inferred from the file
// extension (.png, .jpg, .jpeg).
func Generate(output string, img image.Image, cfg Config) error {
	f, err := ParseFormat(filepath.Ext(output))
	if err != nil {
		return err
	}
	cfg.Format = f
	if err := imaging.Save(img, output, encodeOptions(cfg)...); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// GenerateToWriter encodes img to w. This is useful for in-memory
// generation (HTTP responses, WASM).
func GenerateToWriter(w io.Writer, img image.Image, cfg Config) error {
	var format imaging.Format
	switch cfg.Format.orDefault() {
	case PNG:
		format = imaging.PNG
	case JPEG:
		format = imaging.JPEG
	default:
		return fmt.Errorf("encode: unsupported format %q", cfg.Format)
	}
	if err := imaging.Encode(w, img, format, encodeOptions(cfg)...); err != nil {
		return fmt.Errorf("encode %s: %w", cfg.Format.orDefault(), err)
	}
	return nil
}

// Encode returns the encoded bytes of img.
func Encode(img image.Image, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := GenerateToWriter(&buf, img, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL wraps encoded bytes as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its media type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mime, data, nil
}

func encodeOptions(cfg Config) []imaging.EncodeOption {
	q := cfg.Quality
	if q <= 0 || q > 100 {
		q = DefaultJPEGQuality
	}
	return []imaging.EncodeOption{
		imaging.JPEGQuality(q),
		imaging.PNGCompressionLevel(png.DefaultCompression),
	}
}

func (f Format) orDefault() Format {
	if f == "" {
		return PNG
	}
	return f
}
