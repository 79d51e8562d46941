package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name          string
		srcW, srcH    int
		width, height *int
		wantW, wantH  int
	}{
		{name: "no bounds", srcW: 400, srcH: 300, wantW: 400, wantH: 300},
		{name: "width only", srcW: 400, srcH: 300, width: intPtr(100), wantW: 100, wantH: 75},
		{name: "height only", srcW: 400, srcH: 300, height: intPtr(150), wantW: 200, wantH: 150},
		{name: "box limited by width", srcW: 400, srcH: 300, width: intPtr(100), height: intPtr(100), wantW: 100, wantH: 75},
		{name: "box limited by height", srcW: 300, srcH: 400, width: intPtr(100), height: intPtr(100), wantW: 75, wantH: 100},
		{name: "enlarge", srcW: 40, srcH: 30, width: intPtr(80), wantW: 80, wantH: 60},
		{name: "never zero", srcW: 1000, srcH: 10, width: intPtr(10), wantW: 10, wantH: 1},
		{name: "rounding", srcW: 333, srcH: 222, width: intPtr(100), wantW: 100, wantH: 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitWithin(tt.srcW, tt.srcH, tt.width, tt.height)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestOptions_Resizes(t *testing.T) {
	assert.False(t, Options{Format: FormatPNG}.Resizes())
	assert.True(t, Options{Width: intPtr(1)}.Resizes())
	assert.True(t, Options{Height: intPtr(1)}.Resizes())
}
