package vips

import (
	"bytes"
	"image/gif"
	"os"
	"testing"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermanifest/image-processing/common/codec"
	"github.com/mattermanifest/image-processing/common/codec/codectest"
	"github.com/mattermanifest/image-processing/common/logger"
)

var testCodec *Codec

func TestMain(m *testing.M) {
	testCodec = New(logger.Discard())
	code := m.Run()
	testCodec.Close()
	os.Exit(code)
}

func intPtr(v int) *int { return &v }

func load(t *testing.T, data []byte) *vips.ImageRef {
	t.Helper()
	params := vips.NewImportParams()
	params.NumPages.Set(-1)
	img, err := vips.LoadImageFromBuffer(data, params)
	require.NoError(t, err)
	t.Cleanup(img.Close)
	return img
}

func TestProcess_JPEGToWEBP(t *testing.T) {
	if !vips.IsTypeSupported(vips.ImageTypeWEBP) {
		t.Skip("libvips built without webp support")
	}

	out, err := testCodec.Process(codectest.JPEG(t, 400, 200), codec.Options{
		Width:   intPtr(100),
		Format:  codec.FormatWEBP,
		Quality: intPtr(60),
	})
	require.NoError(t, err)

	img := load(t, out)
	assert.Equal(t, vips.ImageTypeWEBP, img.Format())
	assert.Equal(t, 100, img.Width())
	assert.Equal(t, 50, img.Height())
}

func TestProcess_KeepsSourceType(t *testing.T) {
	out, err := testCodec.Process(codectest.JPEG(t, 100, 100), codec.Options{Height: intPtr(20)})
	require.NoError(t, err)

	img := load(t, out)
	assert.Equal(t, vips.ImageTypeJPEG, img.Format())
	assert.Equal(t, 20, img.Width())
	assert.Equal(t, 20, img.Height())
}

func TestProcess_AutoOrients(t *testing.T) {
	src := codectest.OrientedJPEG(t, 40, 20, 6)

	t.Run("no resize", func(t *testing.T) {
		out, err := testCodec.Process(src, codec.Options{})
		require.NoError(t, err)

		img := load(t, out)
		assert.Equal(t, 20, img.Width())
		assert.Equal(t, 40, img.Height())
		assert.Equal(t, 0, img.Orientation())
	})

	t.Run("width applies to the displayed image", func(t *testing.T) {
		out, err := testCodec.Process(src, codec.Options{Width: intPtr(10)})
		require.NoError(t, err)

		img := load(t, out)
		assert.Equal(t, 10, img.Width())
		assert.Equal(t, 20, img.Height())
		assert.Equal(t, 0, img.Orientation())
	})
}

func TestProcess_CorruptEXIF(t *testing.T) {
	out, err := testCodec.Process(codectest.CorruptEXIFJPEG(t, 30, 12), codec.Options{})
	require.NoError(t, err)

	img := load(t, out)
	assert.Equal(t, 30, img.Width())
	assert.Equal(t, 12, img.Height())
}

func TestProcess_AnimatedGIF(t *testing.T) {
	out, err := testCodec.Process(codectest.AnimatedGIF(t, 60, 30, 3), codec.Options{Width: intPtr(30)})
	require.NoError(t, err)

	anim, err := gif.DecodeAll(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, 30, anim.Config.Width)
	assert.Equal(t, 15, anim.Config.Height)
}

func TestProcess_AnimatedWEBP(t *testing.T) {
	if !vips.IsTypeSupported(vips.ImageTypeWEBP) {
		t.Skip("libvips built without webp support")
	}

	webp, err := testCodec.Process(codectest.AnimatedGIF(t, 60, 30, 3), codec.Options{Format: codec.FormatWEBP})
	require.NoError(t, err)
	require.Equal(t, 3, load(t, webp).Pages())

	out, err := testCodec.Process(webp, codec.Options{Width: intPtr(30)})
	require.NoError(t, err)

	img := load(t, out)
	assert.Equal(t, vips.ImageTypeWEBP, img.Format())
	assert.Equal(t, 3, img.Pages())
	assert.Equal(t, 30, img.Width())
	assert.Equal(t, 15, img.PageHeight())
}

func TestProcess_SVGSource(t *testing.T) {
	if !vips.IsTypeSupported(vips.ImageTypeSVG) {
		t.Skip("libvips built without svg support")
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)

	out, err := testCodec.Process(svg, codec.Options{})
	require.NoError(t, err)
	assert.Equal(t, svg, out)

	_, err = testCodec.Process(codectest.PNG(t, 10, 10), codec.Options{Format: codec.FormatSVG})
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
}

func TestProcess_Unrecognised(t *testing.T) {
	_, err := testCodec.Process([]byte("plain text"), codec.Options{})
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
}
