package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		maxDim        int
		wantW, wantH  int
	}{
		{name: "small image keeps size", width: 40, height: 30, maxDim: 100, wantW: 40, wantH: 30},
		{name: "landscape downscaled", width: 200, height: 100, maxDim: 50, wantW: 50, wantH: 25},
		{name: "portrait downscaled", width: 100, height: 200, maxDim: 50, wantW: 25, wantH: 50},
		{name: "zero max keeps size", width: 120, height: 80, maxDim: 0, wantW: 120, wantH: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(pngImage(t, tt.width, tt.height), tt.maxDim)
			require.NoError(t, err)

			w, h := decodedSize(t, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	in := pngImage(t, 64, 64)

	a, err := Normalize(in, 32)
	require.NoError(t, err)
	b, err := Normalize(in, 32)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize(nil, 100)
	assert.ErrorIs(t, err, domain.ErrImageRequired)

	_, err = Normalize([]byte("definitely not an image"), 100)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestFit(t *testing.T) {
	w, h := fit(1000, 1, 10)
	assert.Equal(t, 10, w)
	assert.Equal(t, 1, h)

	w, h = fit(1, 1000, 10)
	assert.Equal(t, 1, w)
	assert.Equal(t, 10, h)
}
