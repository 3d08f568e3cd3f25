package bessel

import (
	"fmt"
	"math"

	"helicalindex/internal/models"
)

// Map assigns each frequency-grid pixel the Bessel order whose first peak
// best matches that pixel. Data is row-major with the frequency origin at
// (Height/2, Width/2).
type Map struct {
	Data   []int
	Width  int
	Height int
}

// At returns the order at row y, column x.
func (m *Map) At(y, x int) int { return m.Data[y*m.Width+x] }

// OrderMap classifies every pixel of an ny × nx frequency grid by nearest
// Bessel first peak, for a helix of the given radius (Å) viewed at the
// given out-of-plane tilt (degrees).
//
// Each pixel's spatial-frequency magnitude is scaled by 2π·radius before
// lookup. With tilt the effective vertical frequency is divided by
// cos(tilt) and folded into the horizontal magnitude via a hypotenuse with
// its sin(tilt) component. This tilt formulation is kept separate from the
// layer-line predictor's, and the horizontal cutoff sets the sampling step
// on both axes; cutoffResY is accepted for signature symmetry until a
// consolidated form is validated against tilted data.
func OrderMap(ny, nx int, cutoffResX, cutoffResY, radius, tilt float64) (*Map, error) {
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("%w: grid size %dx%d too small", models.ErrInvalidParameter, nx, ny)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be > 0, got %g", models.ErrInvalidParameter, radius)
	}
	if cutoffResX <= 0 {
		return nil, fmt.Errorf("%w: cutoff resolution must be > 0, got %g", models.ErrInvalidParameter, cutoffResX)
	}
	m := &Map{Data: make([]int, ny*nx), Width: nx, Height: ny}
	if tilt != 0 {
		dsx := 1.0 / (cutoffResX * float64(nx/2))
		dsy := 1.0 / (cutoffResX * float64(ny/2))
		cosT := math.Cos(tilt * math.Pi / 180)
		sinT := math.Sin(tilt * math.Pi / 180)

		ys := make([]float64, ny)
		for y := 0; y < ny; y++ {
			ys[y] = 2 * math.Pi * math.Abs(float64(y-ny/2)) * dsy * radius / cosT
		}
		xs := make([]float64, nx)
		for x := 0; x < nx; x++ {
			xs[x] = 2 * math.Pi * math.Abs(float64(x-nx/2)) * dsx * radius
		}
		xmax := 0.0
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v := math.Hypot(xs[x], ys[y]*sinT)
				if v > xmax {
					xmax = v
				}
			}
		}
		t := BuildPeakTable(xmax)
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				m.Data[y*nx+x] = t.Nearest(math.Hypot(xs[x], ys[y]*sinT))
			}
		}
		return m, nil
	}

	// Untilted: only the horizontal frequency magnitude matters, so one
	// row is classified and tiled.
	ds := 1.0 / (cutoffResX * float64(nx/2))
	xs := make([]float64, nx)
	xmax := 0.0
	for x := 0; x < nx; x++ {
		xs[x] = 2 * math.Pi * math.Abs(float64(x-nx/2)) * ds * radius
		if xs[x] > xmax {
			xmax = xs[x]
		}
	}
	t := BuildPeakTable(xmax)
	row := make([]int, nx)
	for x := 0; x < nx; x++ {
		row[x] = t.Nearest(xs[x])
	}
	for y := 0; y < ny; y++ {
		copy(m.Data[y*nx:(y+1)*nx], row)
	}
	return m, nil
}
