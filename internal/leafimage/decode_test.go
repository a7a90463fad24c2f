package leafimage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, solidImage(4, 3, color.NRGBA{R: 10, G: 200, B: 30, A: 255}))

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 200, B: 30, A: 255}, img.NRGBAAt(2, 1))
}

func TestDecodeDropsAlpha(t *testing.T) {
	data := encodePNG(t, solidImage(2, 2, color.NRGBA{R: 120, G: 60, B: 90, A: 128}))

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 120, G: 60, B: 90, A: 255}, img.NRGBAAt(0, 0))
}

func TestDecodeOtherFormats(t *testing.T) {
	src := solidImage(8, 8, color.NRGBA{R: 40, G: 160, B: 40, A: 255})

	t.Run("jpeg", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, src, nil))
		img, err := Decode(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, 8, img.Bounds().Dx())
	})

	t.Run("gif", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, gif.Encode(&buf, src, nil))
		img, err := Decode(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, 8, img.Bounds().Dy())
	})
}

func TestDecodeNormalizesBounds(t *testing.T) {
	src := solidImage(6, 6, color.NRGBA{R: 1, G: 2, B: 3, A: 255}).SubImage(image.Rect(2, 2, 5, 6))

	img, err := Decode(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 4), img.Bounds())
}

func TestDecodeInvalid(t *testing.T) {
	valid := encodePNG(t, solidImage(4, 4, color.NRGBA{A: 255}))

	cases := map[string][]byte{
		"empty":     {},
		"text":      []byte("this is a plain text file pretending to be a jpg"),
		"truncated": valid[:len(valid)/2],
		"header":    valid[:8],
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			img, err := Decode(data)
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, ErrInvalidImageFormat))
		})
	}
}
