package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

const jpegQuality = 90

// Normalize decodes any supported image, downscales it so neither side
// exceeds maxDim (0 keeps the size) and re-encodes it as JPEG.
func Normalize(data []byte, maxDim int) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.ErrImageRequired
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("decode image: %w", err))
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, domain.ErrInvalidImage
	}

	if maxDim > 0 && (width > maxDim || height > maxDim) {
		newWidth, newHeight := fit(width, height, maxDim)
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales width x height to fit within maxDim, keeping the aspect ratio.
func fit(width, height, maxDim int) (int, int) {
	if width >= height {
		h := height * maxDim / width
		return maxDim, max(h, 1)
	}
	w := width * maxDim / height
	return max(w, 1), maxDim
}
