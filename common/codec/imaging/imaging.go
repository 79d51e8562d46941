// Package imaging is a pure-Go codec backend built on disintegration/imaging.
// It decodes JPEG, PNG, GIF, BMP, TIFF and WEBP and encodes everything but
// WEBP and AVIF. Animated GIFs keep all frames. A WEBP source can only be
// passed through untouched or converted to another format.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mattermanifest/image-processing/common/codec"
)

const defaultJPEGQuality = 80

// Codec implements codec.Codec without cgo
type Codec struct {
	filter imaging.ResampleFilter
}

// New returns a codec resampling with Lanczos
func New() *Codec {
	return &Codec{filter: imaging.Lanczos}
}

func (c *Codec) Name() string { return "imaging" }

func (c *Codec) Process(data []byte, opts codec.Options) ([]byte, error) {
	_, source, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrUnsupportedFormat, err)
	}

	target, err := targetFormat(source, opts.Format)
	if err != nil {
		// a decodable source this backend cannot write, with nothing asked of it
		if opts.Format == codec.FormatSource && !opts.Resizes() {
			return data, nil
		}
		return nil, err
	}

	if source == "gif" && target == imaging.GIF {
		anim, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		if len(anim.Image) > 1 {
			return c.processAnimated(anim, opts)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	if opts.Resizes() {
		b := img.Bounds()
		w, h := codec.FitWithin(b.Dx(), b.Dy(), opts.Width, opts.Height)
		img = imaging.Resize(img, w, h, c.filter)
	}

	var encodeOpts []imaging.EncodeOption
	if target == imaging.JPEG {
		q := defaultJPEGQuality
		if opts.Quality != nil {
			q = *opts.Quality
		}
		encodeOpts = append(encodeOpts, imaging.JPEGQuality(q))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, encodeOpts...); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// processAnimated resizes every frame by the same ratio and re-encodes the
// animation with its original palettes, delays and loop count
func (c *Codec) processAnimated(anim *gif.GIF, opts codec.Options) ([]byte, error) {
	srcW, srcH := anim.Config.Width, anim.Config.Height
	if srcW == 0 || srcH == 0 {
		b := anim.Image[0].Bounds()
		srcW, srcH = b.Dx(), b.Dy()
	}

	if opts.Resizes() {
		w, h := codec.FitWithin(srcW, srcH, opts.Width, opts.Height)
		sx := float64(w) / float64(srcW)
		sy := float64(h) / float64(srcH)

		for i, frame := range anim.Image {
			b := frame.Bounds()
			rect := image.Rect(
				int(float64(b.Min.X)*sx), int(float64(b.Min.Y)*sy),
				int(float64(b.Max.X)*sx), int(float64(b.Max.Y)*sy),
			)
			if rect.Dx() < 1 {
				rect.Max.X = rect.Min.X + 1
			}
			if rect.Dy() < 1 {
				rect.Max.Y = rect.Min.Y + 1
			}

			scaled := imaging.Resize(frame, rect.Dx(), rect.Dy(), c.filter)
			out := image.NewPaletted(rect, frame.Palette)
			draw.Draw(out, rect, scaled, image.Point{}, draw.Src)
			anim.Image[i] = out
		}
		anim.Config.Width, anim.Config.Height = w, h
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

func targetFormat(source string, requested codec.Format) (imaging.Format, error) {
	name := string(requested)
	if requested == codec.FormatSource {
		name = source
	}

	switch name {
	case "jpeg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	case "bmp":
		return imaging.BMP, nil
	case "tiff":
		return imaging.TIFF, nil
	}
	return 0, fmt.Errorf("%w: cannot encode %q", codec.ErrUnsupportedFormat, name)
}

var _ codec.Codec = (*Codec)(nil)
