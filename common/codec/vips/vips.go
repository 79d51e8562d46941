// Package vips is the libvips codec backend, via davidbyttow/govips. It needs
// cgo and libvips at build time; only the service entrypoint imports it.
//
// Inputs are loaded with every page so animated GIF and WEBP keep all of
// their frames through a resize.
package vips

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/mattermanifest/image-processing/common/codec"
	"github.com/mattermanifest/image-processing/common/logger"
)

var startOnce sync.Once

var imageTypes = map[vips.ImageType]codec.Format{
	vips.ImageTypeJPEG: codec.FormatJPEG,
	vips.ImageTypePNG:  codec.FormatPNG,
	vips.ImageTypeGIF:  codec.FormatGIF,
	vips.ImageTypeWEBP: codec.FormatWEBP,
	vips.ImageTypeAVIF: codec.FormatAVIF,
	vips.ImageTypeSVG:  codec.FormatSVG,
}

// Codec implements codec.Codec with libvips
type Codec struct{}

// New starts libvips once per process and routes its warnings to log
func New(log *logger.Logger) *Codec {
	startOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				log.Error("libvips", "domain", domain, "message", msg)
			default:
				log.Warn("libvips", "domain", domain, "message", msg)
			}
		}, vips.LogLevelWarning)
		vips.Startup(nil)
	})
	return &Codec{}
}

func (c *Codec) Name() string { return "vips" }

// Close shuts libvips down. No codec may be used afterwards.
func (c *Codec) Close() {
	vips.Shutdown()
}

func (c *Codec) Process(data []byte, opts codec.Options) ([]byte, error) {
	params := vips.NewImportParams()
	params.NumPages.Set(-1)
	params.FailOnError.Set(false)

	img, err := vips.LoadImageFromBuffer(data, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrUnsupportedFormat, err)
	}
	defer img.Close()

	source, known := imageTypes[img.Format()]
	target := opts.Format
	if target == codec.FormatSource {
		if !known || !saveable(source) {
			// nothing to do and nothing we could write back: hand the input out
			if !opts.Resizes() {
				return data, nil
			}
			return nil, fmt.Errorf("%w: cannot save source type %d", codec.ErrUnsupportedFormat, img.Format())
		}
		target = source
	}
	if !saveable(target) {
		return nil, fmt.Errorf("%w: libvips cannot save %q", codec.ErrUnsupportedFormat, target)
	}

	pages := img.Pages()
	if pages <= 1 {
		if err := img.AutoRotate(); err != nil {
			return nil, fmt.Errorf("auto-rotate: %w", err)
		}
	}

	if opts.Resizes() {
		srcW, pageH := img.Width(), img.Height()
		if pages > 1 {
			pageH = img.PageHeight()
		}
		w, h := codec.FitWithin(srcW, pageH, opts.Width, opts.Height)

		hScale := float64(w) / float64(srcW)
		vScale := float64(h) / float64(pageH)
		if err := img.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		if pages > 1 {
			if err := img.SetPageHeight(h); err != nil {
				return nil, fmt.Errorf("set page height: %w", err)
			}
		}
	}

	return export(img, target, opts.Quality)
}

func saveable(f codec.Format) bool {
	for t, format := range imageTypes {
		if format == f {
			return f != codec.FormatSVG && vips.IsTypeSupported(t)
		}
	}
	return false
}

func export(img *vips.ImageRef, target codec.Format, quality *int) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch target {
	case codec.FormatJPEG:
		p := vips.NewJpegExportParams()
		p.StripMetadata = true
		if quality != nil {
			p.Quality = *quality
		}
		out, _, err = img.ExportJpeg(p)
	case codec.FormatPNG:
		p := vips.NewPngExportParams()
		p.StripMetadata = true
		out, _, err = img.ExportPng(p)
	case codec.FormatGIF:
		p := vips.NewGifExportParams()
		p.StripMetadata = true
		out, _, err = img.ExportGIF(p)
	case codec.FormatWEBP:
		p := vips.NewWebpExportParams()
		p.StripMetadata = true
		if quality != nil {
			p.Quality = *quality
		}
		out, _, err = img.ExportWebp(p)
	case codec.FormatAVIF:
		p := vips.NewAvifExportParams()
		p.StripMetadata = true
		if quality != nil {
			p.Quality = *quality
		}
		out, _, err = img.ExportAvif(p)
	default:
		return nil, fmt.Errorf("%w: %q", codec.ErrUnsupportedFormat, target)
	}

	if err != nil {
		return nil, fmt.Errorf("vips export %s: %w", target, err)
	}
	return out, nil
}

var _ codec.Codec = (*Codec)(nil)
