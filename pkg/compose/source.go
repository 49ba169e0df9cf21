// source.go — Image sources for flyer and photo loads.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ImageSource produces a decoded image. Sources may block (file or
// network reads) and should honour ctx.
type ImageSource func(ctx context.Context) (image.Image, error)

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP, applying the
// EXIF orientation of camera photos.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// FromBytes decodes an in-memory image.
func FromBytes(data []byte) ImageSource {
	return func(ctx context.Context) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return DecodeImage(bytes.NewReader(data))
	}
}

// FromFile decodes the image at path.
func FromFile(path string) ImageSource {
	return func(ctx context.Context) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return DecodeImage(f)
	}
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) ImageSource {
	return func(context.Context) (image.Image, error) {
		return img, nil
	}
}
