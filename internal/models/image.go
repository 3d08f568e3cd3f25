// Package models defines the data types shared by the helical indexing
// packages: real-valued image grids, helical symmetry parameters, frequency
// grid specifications and the result types produced by the analysis.
package models

import (
	"errors"
	"math"
)

// Error kinds reported by the analysis packages. Callers distinguish them
// with errors.Is; all computation errors are local to the failing call.
var (
	// ErrInvalidParameter reports a parameter that violates a documented
	// invariant (twist = 0, csym < 1, radius <= 0, cutoff resolution finer
	// than the Nyquist resolution, non-positive grid sizes).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDegenerateImage reports an all-zero or constant input image for
	// which normalization or alignment is undefined.
	ErrDegenerateImage = errors.New("degenerate image")

	// ErrComputation reports non-finite values produced by a transform.
	// It is never silently substituted with zeros.
	ErrComputation = errors.New("computation produced non-finite values")
)

// Image is a 2-D grid of real samples with an associated pixel size in
// Å/sample. Data is stored row-major, Data[y*Width+x]. Images are treated
// as immutable: every transform allocates and returns a new Image.
type Image struct {
	// Data holds the samples in row-major order.
	Data []float64

	// Width and Height are the grid dimensions in samples.
	Width  int
	Height int

	// PixelSize is the physical sample spacing in Å.
	PixelSize float64
}

// NewImage allocates a zero-valued image of the given size.
func NewImage(width, height int, pixelSize float64) *Image {
	return &Image{
		Data:      make([]float64, width*height),
		Width:     width,
		Height:    height,
		PixelSize: pixelSize,
	}
}

// At returns the sample at row y, column x.
func (im *Image) At(y, x int) float64 {
	return im.Data[y*im.Width+x]
}

// Set assigns the sample at row y, column x. It is intended for use while
// building an image; produced images are not mutated in place.
func (im *Image) Set(y, x int, v float64) {
	im.Data[y*im.Width+x] = v
}

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := NewImage(im.Width, im.Height, im.PixelSize)
	copy(out.Data, im.Data)
	return out
}

// AnyNonzero reports whether the image has at least one nonzero sample.
func (im *Image) AnyNonzero() bool {
	for _, v := range im.Data {
		if v != 0 {
			return true
		}
	}
	return false
}

// IsConstant reports whether all samples share the same value.
func (im *Image) IsConstant() bool {
	if len(im.Data) == 0 {
		return true
	}
	first := im.Data[0]
	for _, v := range im.Data[1:] {
		if v != first {
			return false
		}
	}
	return true
}

// MinMax returns the smallest and largest sample values.
func (im *Image) MinMax() (min, max float64) {
	if len(im.Data) == 0 {
		return 0, 0
	}
	min, max = im.Data[0], im.Data[0]
	for _, v := range im.Data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// AllFinite reports whether every sample is a finite number.
func (im *Image) AllFinite() bool {
	for _, v := range im.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Volume is a 3-D grid of real samples indexed Data[(z*Height+y)*Width+x],
// used by the forward simulator's projection path.
type Volume struct {
	Data   []float64
	Width  int // x extent
	Height int // y extent
	Depth  int // z extent

	// VoxelSize is the physical voxel spacing in Å.
	VoxelSize float64
}

// NewVolume allocates a zero-valued volume of the given size.
func NewVolume(width, height, depth int, voxelSize float64) *Volume {
	return &Volume{
		Data:      make([]float64, width*height*depth),
		Width:     width,
		Height:    height,
		Depth:     depth,
		VoxelSize: voxelSize,
	}
}

// At returns the voxel at (z, y, x).
func (v *Volume) At(z, y, x int) float64 {
	return v.Data[(z*v.Height+y)*v.Width+x]
}

// Set assigns the voxel at (z, y, x).
func (v *Volume) Set(z, y, x int, val float64) {
	v.Data[(z*v.Height+y)*v.Width+x] = val
}
