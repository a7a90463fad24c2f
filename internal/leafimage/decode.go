// Package leafimage turns uploaded bytes into an RGB image the classifier can consume.
package leafimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrInvalidImageFormat = errors.New("invalid image format")

// Decode accepts any registered format and returns an opaque NRGBA image whose
// bounds start at the origin. Alpha is dropped rather than composited.
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImageFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrInvalidImageFormat, format)
	}

	return toRGB(img), nil
}

func toRGB(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}

	return dst
}
