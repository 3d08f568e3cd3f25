// Package simulate renders synthetic projections of idealized helical
// point lattices. Feeding a simulated projection back through the
// frequency transform and layer-line predictor is the primary
// self-consistency check of the analysis.
package simulate

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"helicalindex/internal/models"
)

// Helix renders the 2-D projection of one helical subunit per rise-step
// across the full image height, replicated csym-fold around the axis at
// azimuths offset by azimuth0 (degrees). Each subunit projects to an
// isotropic Gaussian of width ballRadius (Å). A non-positive ballRadius
// is the degenerate boundary case and yields the all-zero image.
func Helix(p models.SymmetryParameters, ballRadius float64, width, height int, pixelSize float64, azimuth0 float64) (*models.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: image size %dx%d too small", models.ErrInvalidParameter, width, height)
	}
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: pixel size must be > 0, got %g", models.ErrInvalidParameter, pixelSize)
	}
	out := models.NewImage(width, height, pixelSize)
	if ballRadius <= 0 {
		return out, nil
	}

	centers := unitPositions(p, float64(height)*pixelSize, azimuth0)
	splat(out, centers, ballRadius)
	return out, nil
}

// unitPositions generates the projected (y, x) subunit centers in Å. The
// axial index range is symmetric about zero with step rise; the in-plane
// angle advances by twist per step, csym copies sit at evenly spaced
// azimuths, and the first subunit starts from the +y axis. A nonzero tilt
// rotates the 3-D lattice about the axis perpendicular to the projection
// direction before the projection drops that axis.
func unitPositions(p models.SymmetryParameters, heightAng, azimuth0 float64) [][2]float64 {
	imax := int(heightAng / p.Rise)
	n := (2*imax + 1) * p.Csym
	coords := mat.NewDense(n, 3, nil)
	row := 0
	for i := -imax; i <= imax; i++ {
		z := p.Rise * float64(i)
		for si := 0; si < p.Csym; si++ {
			angle := (p.Twist*float64(i) + float64(si)*360/float64(p.Csym) + azimuth0 + 90) * math.Pi / 180
			coords.Set(row, 0, math.Cos(angle)*p.Radius)
			coords.Set(row, 1, math.Sin(angle)*p.Radius)
			coords.Set(row, 2, z)
			row++
		}
	}
	if p.Tilt != 0 {
		t := p.Tilt * math.Pi / 180
		c, s := math.Cos(t), math.Sin(t)
		// Rotation about the x axis; coords are row vectors.
		rot := mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, c, -s,
			0, s, c,
		})
		var rotated mat.Dense
		rotated.Mul(coords, rot.T())
		coords = &rotated
	}

	// Project along y: vertical coordinate is z, horizontal is x.
	centers := make([][2]float64, n)
	for r := 0; r < n; r++ {
		centers[r] = [2]float64{coords.At(r, 2), coords.At(r, 0)}
	}
	return centers
}

// splat accumulates an isotropic Gaussian of width sigma (Å) at each
// (y, x) center, on a grid centered at (Height/2, Width/2). Contributions
// beyond five sigma are negligible and skipped.
func splat(out *models.Image, centers [][2]float64, sigma float64) {
	apix := out.PixelSize
	sigma2 := sigma * sigma
	window := int(math.Ceil(5*sigma/apix)) + 1
	cy, cx := out.Height/2, out.Width/2
	for _, c := range centers {
		yc, xc := c[0], c[1]
		py := int(math.Round(yc/apix)) + cy
		px := int(math.Round(xc/apix)) + cx
		y0, y1 := max(py-window, 0), min(py+window, out.Height-1)
		x0, x1 := max(px-window, 0), min(px+window, out.Width-1)
		for y := y0; y <= y1; y++ {
			dy := float64(y-cy)*apix - yc
			for x := x0; x <= x1; x++ {
				dx := float64(x-cx)*apix - xc
				out.Data[y*out.Width+x] += math.Exp(-(dx*dx + dy*dy) / sigma2)
			}
		}
	}
}

// AddNoise returns the image with Gaussian noise added, scaled to
// sigmaMultiple times the standard deviation of the nonzero pixels. The
// explicit source keeps simulation results reproducible. A non-positive
// multiple returns the input unchanged.
func AddNoise(img *models.Image, sigmaMultiple float64, rng *rand.Rand) *models.Image {
	if sigmaMultiple <= 0 {
		return img
	}
	var sum, sum2 float64
	count := 0
	for _, v := range img.Data {
		if v != 0 {
			sum += v
			sum2 += v * v
			count++
		}
	}
	if count == 0 {
		return img
	}
	meanV := sum / float64(count)
	variance := sum2/float64(count) - meanV*meanV
	if variance < 0 {
		variance = 0
	}
	sigma := math.Sqrt(variance) * sigmaMultiple

	out := img.Clone()
	for i := range out.Data {
		out.Data[i] += rng.NormFloat64() * sigma
	}
	return out
}
