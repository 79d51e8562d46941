package models

import (
	"strconv"
	"strings"

	"github.com/mattermanifest/image-processing/common/codec"
)

// Operation keys understood by the transform engine
const (
	OpWidth   = "width"
	OpHeight  = "height"
	OpFormat  = "format"
	OpQuality = "quality"
)

// Operations is the parsed operation descriptor of a request, e.g.
// "format=webp,width=200". Unknown keys are kept and ignored.
type Operations map[string]string

// ParseOperations splits a descriptor on "," and each piece on the first "=".
// A piece without "=" maps to the empty string.
func ParseOperations(segment string) Operations {
	ops := make(Operations)
	if segment == "" {
		return ops
	}
	for _, piece := range strings.Split(segment, ",") {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		ops[key] = value
	}
	return ops
}

// OutputFormat describes an encoding the engine can produce
type OutputFormat struct {
	Name        string
	ContentType string
	Lossy       bool
	Codec       codec.Format
}

var outputFormats = map[string]OutputFormat{
	"jpeg": {Name: "jpeg", ContentType: "image/jpeg", Lossy: true, Codec: codec.FormatJPEG},
	"svg":  {Name: "svg", ContentType: "image/svg+xml", Lossy: false, Codec: codec.FormatSVG},
	"gif":  {Name: "gif", ContentType: "image/gif", Lossy: false, Codec: codec.FormatGIF},
	"webp": {Name: "webp", ContentType: "image/webp", Lossy: true, Codec: codec.FormatWEBP},
	"png":  {Name: "png", ContentType: "image/png", Lossy: false, Codec: codec.FormatPNG},
	"avif": {Name: "avif", ContentType: "image/avif", Lossy: true, Codec: codec.FormatAVIF},
}

// LookupFormat maps a requested format name to its output format.
// Names outside the table encode as JPEG.
func LookupFormat(name string) OutputFormat {
	if f, ok := outputFormats[name]; ok {
		return f
	}
	return OutputFormat{Name: name, ContentType: "image/jpeg", Lossy: true, Codec: codec.FormatJPEG}
}

// TransformOptions is the validated form of Operations
type TransformOptions struct {
	Width   *int
	Height  *int
	Quality *int
	Format  *OutputFormat
}

// Options validates the recognised keys. Width and height must be positive
// integers, quality an integer in 1..100; anything else is treated as absent.
func (o Operations) Options() TransformOptions {
	var opts TransformOptions
	opts.Width = positiveInt(o[OpWidth])
	opts.Height = positiveInt(o[OpHeight])

	if q := positiveInt(o[OpQuality]); q != nil && *q <= 100 {
		opts.Quality = q
	}

	if name := o[OpFormat]; name != "" {
		f := LookupFormat(name)
		opts.Format = &f
	}
	return opts
}

// IsNoop reports whether the options leave the image as it is
func (t TransformOptions) IsNoop() bool {
	return t.Width == nil && t.Height == nil && t.Format == nil
}

// Codec converts to codec options. Quality is only forwarded with an
// explicit lossy format.
func (t TransformOptions) Codec() codec.Options {
	opts := codec.Options{Width: t.Width, Height: t.Height}
	if t.Format != nil {
		opts.Format = t.Format.Codec
		if t.Format.Lossy {
			opts.Quality = t.Quality
		}
	}
	return opts
}

func positiveInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
