// Package imagegrid provides the image transform primitives used by the
// helical indexing pipeline: affine rotate/shift resampling, percentile
// normalization, cosine-taper masking and Gaussian band-pass filtering.
// All functions treat images as immutable and return new grids.
package imagegrid

import (
	"fmt"
	"math"
	"sort"

	"helicalindex/internal/models"
)

// Percentile returns the p-th percentile (0-100) of the samples, linearly
// interpolating between the two nearest order statistics at rank
// p/100 * (n-1). The alignment scores depend on this exact convention.
func Percentile(data []float64, p float64) float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

// quantileSorted evaluates the percentile on an already-sorted slice.
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := p / 100 * float64(n-1)
	if h <= 0 {
		return sorted[0]
	}
	if h >= float64(n-1) {
		return sorted[n-1]
	}
	lo := int(h)
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Normalize linearly rescales the image so the low/high percentile values
// map to 0 and 1. It fails with ErrDegenerateImage when the two percentile
// values coincide (constant or near-constant image).
func Normalize(img *models.Image, percentileLow, percentileHigh float64) (*models.Image, error) {
	sorted := make([]float64, len(img.Data))
	copy(sorted, img.Data)
	sort.Float64s(sorted)
	vmin := quantileSorted(sorted, percentileLow)
	vmax := quantileSorted(sorted, percentileHigh)
	if vmin > vmax {
		vmin, vmax = vmax, vmin
	}
	if vmin == vmax {
		return nil, fmt.Errorf("%w: percentiles %g and %g both map to %g",
			models.ErrDegenerateImage, percentileLow, percentileHigh, vmin)
	}
	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	scale := 1.0 / (vmax - vmin)
	for i, v := range img.Data {
		out.Data[i] = (v - vmin) * scale
	}
	return out, nil
}

// Taper multiplies the image by a separable cosine roll-off mask. Along
// each axis the mask is 1 inside fractionStart of the half-extent, 0 beyond
// fractionStart+fractionSlope, and follows a half cosine in between. An
// axis whose fraction lies outside (0,1) is left untouched; if both do,
// the input is returned unchanged.
func Taper(img *models.Image, fractionStartY, fractionStartX, fractionSlope float64) *models.Image {
	taperY := fractionStartY > 0 && fractionStartY < 1
	taperX := fractionStartX > 0 && fractionStartX < 1
	if !taperY && !taperX {
		return img
	}
	wy := axisTaper(img.Height, fractionStartY, fractionSlope, taperY)
	wx := axisTaper(img.Width, fractionStartX, fractionSlope, taperX)
	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*img.Width : (y+1)*img.Width]
		orow := out.Data[y*img.Width : (y+1)*img.Width]
		for x, v := range row {
			orow[x] = v * wy[y] * wx[x]
		}
	}
	return out
}

// axisTaper builds the 1-D roll-off weights for one axis.
func axisTaper(n int, fraction, slope float64, enabled bool) []float64 {
	w := make([]float64, n)
	if !enabled {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	half := float64(n / 2)
	for i := range w {
		r := abs(float64(i)-half) / half
		switch {
		case r < fraction:
			w[i] = 1
		case r > fraction+slope:
			w[i] = 0
		default:
			t := (r - fraction) / slope
			w[i] = (1 + math.Cos(t*math.Pi)) / 2
		}
	}
	return w
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
