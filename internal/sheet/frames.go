package sheet

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// loadFrame reads an extracted frame and guarantees it is exactly
// width x height. ffmpeg can be off by a pixel when the scaler rounds to
// even dimensions.
func loadFrame(path string, width, height int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}

	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		img = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	}
	return img, nil
}
