package models

import (
	"fmt"
	"math"
	"sort"
)

// SymmetryParameters describes a helical symmetry: the angular and axial
// step between successive subunits, an optional cyclic symmetry around the
// axis, the helix radius and an out-of-plane tilt of the axis.
type SymmetryParameters struct {
	// Twist is the rotation between successive subunits in degrees.
	// Must be nonzero.
	Twist float64

	// Rise is the axial step between successive subunits in Å.
	Rise float64

	// Csym is the order of the additional cyclic symmetry (>= 1).
	Csym int

	// Radius is the helix radius in Å (> 0).
	Radius float64

	// Tilt is the out-of-plane tilt of the helical axis in degrees.
	Tilt float64
}

// Validate checks the parameter invariants.
func (p SymmetryParameters) Validate() error {
	if p.Twist == 0 {
		return fmt.Errorf("%w: twist must be nonzero", ErrInvalidParameter)
	}
	if p.Csym < 1 {
		return fmt.Errorf("%w: csym must be >= 1, got %d", ErrInvalidParameter, p.Csym)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius must be > 0, got %g", ErrInvalidParameter, p.Radius)
	}
	return nil
}

// Pitch returns the axial distance for one full turn of the continuous
// helix, |rise * 360 / twist|, in Å.
func (p SymmetryParameters) Pitch() float64 {
	return math.Abs(p.Rise * 360.0 / p.Twist)
}

// FrequencyGridSpec describes the output grid of a power-spectrum
// computation: its size, the resolution cutoffs that set the frequency
// sampling step along each axis, and the amplitude post-processing.
type FrequencyGridSpec struct {
	// Width and Height are the output grid dimensions in pixels.
	Width  int
	Height int

	// CutoffResX and CutoffResY are the resolution cutoffs in Å. The grid
	// spans spatial frequencies up to 1/cutoff along each axis.
	CutoffResX float64
	CutoffResY float64

	// LowPassFraction and HighPassFraction select Gaussian filters with
	// radii expressed as fractions of Nyquist; a value outside (0,1)
	// disables the corresponding filter.
	LowPassFraction  float64
	HighPassFraction float64

	// LogAmplitude selects log-compression of the amplitude grid.
	LogAmplitude bool
}

// Validate checks the grid spec against the input pixel size and an
// explicit size limit. A cutoff finer than the Nyquist resolution
// (2 * pixel size) is not representable and is rejected.
func (s FrequencyGridSpec) Validate(pixelSize float64, maxDim int) error {
	if s.Width < 2 || s.Height < 2 {
		return fmt.Errorf("%w: output size %dx%d too small", ErrInvalidParameter, s.Width, s.Height)
	}
	if maxDim > 0 && (s.Width > maxDim || s.Height > maxDim) {
		return fmt.Errorf("%w: output size %dx%d exceeds limit %d", ErrInvalidParameter, s.Width, s.Height, maxDim)
	}
	nyquist := 2 * pixelSize
	if s.CutoffResX < nyquist || s.CutoffResY < nyquist {
		return fmt.Errorf("%w: cutoff resolution (%g, %g) finer than Nyquist %g Å",
			ErrInvalidParameter, s.CutoffResX, s.CutoffResY, nyquist)
	}
	return nil
}

// StepX returns the spatial-frequency sampling step along x in 1/Å.
func (s FrequencyGridSpec) StepX() float64 {
	return 1.0 / (float64(s.Width/2) * s.CutoffResX)
}

// StepY returns the spatial-frequency sampling step along y in 1/Å.
func (s FrequencyGridSpec) StepY() float64 {
	return 1.0 / (float64(s.Height/2) * s.CutoffResY)
}

// PowerSpectrum holds the amplitude grid of a frequency transform,
// normalized to [0,1], and, when the input was a raw image, the phase grid
// in radians. Both grids have the frequency origin at the grid center.
type PowerSpectrum struct {
	Amplitude *Image

	// Phase is nil when the spectrum was rescaled from an amplitude-only
	// input.
	Phase *Image

	// StepX and StepY are the frequency sampling steps in 1/Å.
	StepX float64
	StepY float64
}

// LayerLineGroup holds the mirrored layer-line peak coordinates contributed
// by one meridional order m. SX and SY are parallel slices of spatial
// frequencies in 1/Å; every (SX[i], SY[i]) has a mirrored partner.
type LayerLineGroup struct {
	M  int
	SX []float64
	SY []float64
}

// AlignmentResult is the rotation and lateral shift that best verticalizes
// and centers an image.
type AlignmentResult struct {
	// Angle is the rotation in degrees that, applied to the image,
	// verticalizes the helical axis.
	Angle float64

	// ShiftX is the lateral shift in Å that centers the rotated image.
	ShiftX float64

	// Converged is false when an optimizer stage hit its iteration or
	// bound limit; the reported values are then the best found.
	Converged bool
}

// OrderSpec selects the meridional orders for layer-line prediction:
// either derived automatically from rise and resolution cutoff, or an
// explicit list.
type OrderSpec struct {
	explicit []int
	auto     bool
}

// AutoOrders derives the order range from rise and cutoff at prediction
// time.
func AutoOrders() OrderSpec {
	return OrderSpec{auto: true}
}

// ExplicitOrders uses the given meridional orders verbatim.
func ExplicitOrders(m []int) OrderSpec {
	cp := make([]int, len(m))
	copy(cp, m)
	return OrderSpec{explicit: cp}
}

// Orders resolves the spec into a concrete order list. Automatic orders
// span ±(floor(|rise/cutoffRes|)+2) and are enumerated by increasing
// magnitude with sign alternation: 0, -1, 1, -2, 2, ...
func (o OrderSpec) Orders(rise, cutoffRes float64) []int {
	if !o.auto {
		cp := make([]int, len(o.explicit))
		copy(cp, o.explicit)
		return cp
	}
	mMax := int(math.Floor(math.Abs(rise/cutoffRes))) + 2
	m := make([]int, 0, 2*mMax+1)
	for i := -mMax; i <= mMax; i++ {
		m = append(m, i)
	}
	sort.Slice(m, func(i, j int) bool {
		ai, aj := m[i], m[j]
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		if ai != aj {
			return ai < aj
		}
		return m[i] < m[j]
	})
	return m
}
