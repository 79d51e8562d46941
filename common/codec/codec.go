// Package codec defines the image codec capability used by the transform
// engine: decode, auto-orient, resize, encode. Backends live in subpackages.
package codec

import (
	"errors"
	"math"
)

// ErrUnsupportedFormat is returned when a backend cannot decode the input
// or cannot encode the requested output format
var ErrUnsupportedFormat = errors.New("codec: unsupported format")

// Format is an output encoding
type Format string

const (
	// FormatSource keeps the encoding of the input
	FormatSource Format = ""
	FormatJPEG   Format = "jpeg"
	FormatPNG    Format = "png"
	FormatGIF    Format = "gif"
	FormatWEBP   Format = "webp"
	FormatAVIF   Format = "avif"
	FormatSVG    Format = "svg"
)

// Options describes one transformation. Nil fields are not applied.
type Options struct {
	Width   *int
	Height  *int
	Format  Format
	Quality *int // only set for lossy formats
}

// Resizes reports whether a resize was requested
func (o Options) Resizes() bool {
	return o.Width != nil || o.Height != nil
}

// Codec turns input bytes into transformed output bytes. Implementations
// must auto-orient from EXIF metadata, strip the orientation tag from the
// output, and return an error rather than partial output.
type Codec interface {
	Process(data []byte, opts Options) ([]byte, error)
	Name() string
}

// FitWithin computes the output size of a resize that keeps the aspect
// ratio. With one bound the other axis follows the ratio; with both the
// image fits inside the box. Enlargement is allowed. Results are at least 1.
func FitWithin(srcW, srcH int, width, height *int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return srcW, srcH
	}

	var scale float64
	switch {
	case width != nil && height != nil:
		scale = math.Min(float64(*width)/float64(srcW), float64(*height)/float64(srcH))
	case width != nil:
		scale = float64(*width) / float64(srcW)
	case height != nil:
		scale = float64(*height) / float64(srcH)
	default:
		return srcW, srcH
	}

	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	// the bound axis is exact, rounding only affects the derived one
	if width != nil && (height == nil || float64(*width)/float64(srcW) <= float64(*height)/float64(srcH)) {
		w = *width
	} else if height != nil {
		h = *height
	}
	return max(w, 1), max(h, 1)
}
