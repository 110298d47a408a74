// Package imaging normalises uploaded photos: decode any supported format,
// shrink to a bounded size and re-encode as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png
	"io"

	"denuncias/internal/models"

	"golang.org/x/image/draw"
)

// ContentType of every normalised photo.
const ContentType = "image/jpeg"

// Normalize decodes r and returns a JPEG whose longest side is at most
// maxDimension. Images already within bounds are re-encoded unscaled.
// Images whose header declares more than maxPixels pixels are rejected
// before any pixel data is decoded; a non-positive maxPixels disables the
// check.
func Normalize(r io.Reader, maxDimension, maxPixels, quality int) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", models.ErrInvalidImage)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", models.ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), maxDimension)

	var out image.Image = src
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// FitWithin scales (width, height) down so neither side exceeds limit,
// preserving aspect ratio. Non-positive limit disables scaling.
func FitWithin(width, height, limit int) (int, int) {
	if limit <= 0 || (width <= limit && height <= limit) {
		return width, height
	}
	if width >= height {
		h := height * limit / width
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := width * limit / height
	if w < 1 {
		w = 1
	}
	return w, limit
}
