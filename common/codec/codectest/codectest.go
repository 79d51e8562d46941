// Package codectest builds image inputs shared by the codec backend tests
package codectest

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// LosslessWEBP is a 1x1 lossless WEBP
var LosslessWEBP = mustBase64("UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA==")

func mustBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// PNG encodes a w x h gradient
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	return buf.Bytes()
}

// JPEG encodes a w x h gradient without metadata
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

// OrientedJPEG is a w x h JPEG (stored dimensions) carrying an EXIF
// orientation tag. Orientation 6 displays rotated 90 degrees clockwise.
func OrientedJPEG(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()

	tiff := []byte{'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00}
	ifd := make([]byte, 2+12+4)
	binary.LittleEndian.PutUint16(ifd[0:], 1)
	binary.LittleEndian.PutUint16(ifd[2:], 0x0112) // Orientation
	binary.LittleEndian.PutUint16(ifd[4:], 3)      // SHORT
	binary.LittleEndian.PutUint32(ifd[6:], 1)
	binary.LittleEndian.PutUint16(ifd[10:], orientation)

	return withAPP1(t, JPEG(t, w, h), append(tiff, ifd...))
}

// CorruptEXIFJPEG is a w x h JPEG whose EXIF block points its first IFD far
// past the end of the segment
func CorruptEXIFJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	tiff := []byte{'I', 'I', 0x2a, 0x00, 0x00, 0xff, 0xff, 0x7f, 0x01, 0x00}
	return withAPP1(t, JPEG(t, w, h), tiff)
}

// withAPP1 inserts an Exif APP1 segment right after the SOI marker
func withAPP1(t *testing.T, jpg, tiff []byte) []byte {
	t.Helper()
	require.True(t, len(jpg) > 2 && jpg[0] == 0xff && jpg[1] == 0xd8, "not a jpeg")

	payload := append([]byte("Exif\x00\x00"), tiff...)
	segment := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(2+len(payload)))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(jpg)+len(segment))
	out = append(out, jpg[:2]...)
	out = append(out, segment...)
	return append(out, jpg[2:]...)
}

// AnimatedGIF encodes frames distinct w x h frames with a 10cs delay each
func AnimatedGIF(t *testing.T, w, h, frames int) []byte {
	t.Helper()
	anim := &gif.GIF{LoopCount: 0}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				frame.SetColorIndex(x, y, uint8((x+y+i*10)%256))
			}
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))
	return buf.Bytes()
}
