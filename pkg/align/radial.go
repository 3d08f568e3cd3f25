package align

import (
	"fmt"
	"math"

	"helicalindex/internal/models"
)

// EstimateRadialRange estimates the helix radius and a masking radius (both
// in Å) from the x-axis projection of a verticalized image. The radius is
// the mean distance from the center column to the projection maxima on
// each side; the mask radius covers the extent where the projection
// exceeds threshRatio of its dynamic range above the edge background.
func EstimateRadialRange(img *models.Image, threshRatio float64) (radius, maskRadius float64, err error) {
	proj := columnSums(img)
	n := len(proj)
	if n < 6 {
		return 0, 0, fmt.Errorf("%w: image width %d too small", models.ErrInvalidParameter, n)
	}

	// Peak offsets from the center column on each side.
	left := argmax(proj[:n/2+1])
	right := argmax(proj[n/2:])
	radiusPx := (float64(n/2-left) + float64(right)) / 2

	background := (proj[0] + proj[1] + proj[2] + proj[n-3] + proj[n-2] + proj[n-1]) / 6
	maxVal := proj[argmax(proj)]
	if maxVal <= background {
		return 0, 0, fmt.Errorf("%w: projection has no dynamic range", models.ErrDegenerateImage)
	}
	thresh := (maxVal-background)*threshRatio + background

	xmin, xmax := -1, -1
	for i, v := range proj {
		if v > thresh {
			if xmin < 0 {
				xmin = i
			}
			xmax = i
		}
	}
	if xmin < 0 {
		return 0, 0, fmt.Errorf("%w: projection never exceeds threshold", models.ErrDegenerateImage)
	}
	maskPx := math.Max(math.Abs(float64(n/2-xmin)), math.Abs(float64(xmax-n/2)))

	return radiusPx * img.PixelSize, maskPx * img.PixelSize, nil
}

// argmax returns the index of the first maximum.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
