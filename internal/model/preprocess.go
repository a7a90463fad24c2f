package model

import (
	"image"

	"github.com/nfnt/resize"
)

// Preprocess resizes img to the model's square input, rescales to [0,1] and
// normalizes each channel, returning planar CHW data.
func Preprocess(img image.Image, meta Metadata) []float32 {
	size := uint(meta.ImageSize)
	resized := resize.Resize(size, size, img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	inputData := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = normalize(r, meta.Mean[0], meta.Std[0])
			inputData[plane+pixelIndex] = normalize(g, meta.Mean[1], meta.Std[1])
			inputData[2*plane+pixelIndex] = normalize(b, meta.Mean[2], meta.Std[2])
		}
	}

	return inputData
}

func normalize(v uint32, mean, std float32) float32 {
	return (float32(v)/65535.0 - mean) / std
}

// Argmax returns the index of the highest score; the first one wins ties.
func Argmax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}

	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}
	return maxIdx
}
