// Package imaging implements the server-side crop pipeline: decode a source
// image, select a square crop region, and rasterize it into a fixed-size
// output buffer ready for upload.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"

	// Register decoders for the formats the upload form accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrImageTooSmall is returned when either natural dimension of a source
// image is below the minimum. Rejection happens at intake, before any crop
// region is computed.
var ErrImageTooSmall = errors.New("image below minimum dimensions")

const (
	// DefaultOutputSize is the edge length of the square output, before the
	// device scale factor is applied.
	DefaultOutputSize = 150
	// DefaultMinDimension is the smallest acceptable source edge.
	DefaultMinDimension = 150
)

// PercentCrop is a crop region expressed as percentages of the source image
// dimensions, each component in [0, 100].
type PercentCrop struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Config controls Engine behavior.
type Config struct {
	OutputSize   int
	MinDimension int
	// Scale plays the role of the device pixel ratio: the rendered output is
	// OutputSize*Scale on each edge so the result is resolution-independent.
	Scale float64
}

// Engine renders square crops of source images at a fixed output size.
type Engine struct {
	cfg Config
}

// New constructs an Engine, applying defaults for zero-valued fields.
func New(cfg Config) *Engine {
	if cfg.OutputSize <= 0 {
		cfg.OutputSize = DefaultOutputSize
	}
	if cfg.MinDimension <= 0 {
		cfg.MinDimension = DefaultMinDimension
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	return &Engine{cfg: cfg}
}

// OutputSize returns the scaled edge length of rendered crops.
func (e *Engine) OutputSize() int {
	return int(math.Round(float64(e.cfg.OutputSize) * e.cfg.Scale))
}

// Decode reads and decodes a source image, rejecting it when either natural
// dimension is below the minimum.
func (e *Engine) Decode(r io.Reader) (image.Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() < e.cfg.MinDimension || b.Dy() < e.cfg.MinDimension {
		return nil, fmt.Errorf("%s image is %dx%d, need at least %dx%d: %w",
			format, b.Dx(), b.Dy(), e.cfg.MinDimension, e.cfg.MinDimension, ErrImageTooSmall)
	}
	return src, nil
}

// CenteredCrop computes the initial 1:1 crop for a freshly loaded source: a
// centered square whose edge meets the minimum dimension, expressed in
// percentages of the source size.
func (e *Engine) CenteredCrop(width, height int) PercentCrop {
	if width <= 0 || height <= 0 {
		return PercentCrop{Width: 100, Height: 100}
	}
	widthPct := float64(e.cfg.MinDimension) / float64(width) * 100
	if widthPct > 100 {
		widthPct = 100
	}
	// Fixed 1:1 aspect: the pixel edge implied by the width percentage also
	// fixes the height percentage.
	edgePx := widthPct / 100 * float64(width)
	heightPct := edgePx / float64(height) * 100
	if heightPct > 100 {
		heightPct = 100
		widthPct = float64(height) / float64(width) * 100
	}
	return PercentCrop{
		X:      (100 - widthPct) / 2,
		Y:      (100 - heightPct) / 2,
		Width:  widthPct,
		Height: heightPct,
	}
}

// PixelRect converts a percentage-based crop into source pixel coordinates,
// clamped to the image bounds.
func PixelRect(c PercentCrop, width, height int) image.Rectangle {
	x0 := int(math.Round(c.X / 100 * float64(width)))
	y0 := int(math.Round(c.Y / 100 * float64(height)))
	x1 := int(math.Round((c.X + c.Width) / 100 * float64(width)))
	y1 := int(math.Round((c.Y + c.Height) / 100 * float64(height)))
	r := image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		r = image.Rect(0, 0, width, height)
	}
	return r
}

// Render draws the source sub-rectangle scaled to fill the fixed-size square
// output, applying the scale factor uniformly on both axes.
func (e *Engine) Render(src image.Image, region image.Rectangle) *image.RGBA {
	out := e.OutputSize()
	dst := image.NewRGBA(image.Rect(0, 0, out, out))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, region, xdraw.Src, nil)
	return dst
}

// EncodePNG serializes a rendered crop into an encoded buffer for upload.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// CropToPNG runs the whole pipeline: decode and validate the source, resolve
// the crop region (falling back to the centered default when crop is nil),
// render, and PNG-encode the result.
func (e *Engine) CropToPNG(r io.Reader, crop *PercentCrop) ([]byte, error) {
	src, err := e.Decode(r)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	region := crop
	if region == nil {
		c := e.CenteredCrop(b.Dx(), b.Dy())
		region = &c
	}
	rect := PixelRect(*region, b.Dx(), b.Dy()).Add(b.Min)
	return EncodePNG(e.Render(src, rect))
}
