// Package align estimates the rotation and lateral shift that verticalize
// and center a helical projection image. The estimator is a three-stage
// geometric pipeline: a bounded coarse rotation search over a robust
// percentile score, a Nelder-Mead joint refinement of which only the angle
// is kept, and a bounded sub-pixel shift search that mirror-symmetrizes
// the rotated x-profile.
package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/optimize"

	"helicalindex/internal/models"
	"helicalindex/pkg/imagegrid"
)

// Options bounds the optimizer stages. Zero values fall back to the
// defaults.
type Options struct {
	// MaxIterations caps each optimizer stage.
	MaxIterations int

	// AngleTolerance is the coarse rotation search tolerance in degrees.
	AngleTolerance float64

	// ShiftTolerance is the fine shift search tolerance in pixels.
	ShiftTolerance float64

	// SimplexTolerance is the absolute function-value convergence
	// tolerance of the joint refinement.
	SimplexTolerance float64
}

// DefaultOptions returns the stage budgets used when no configuration is
// supplied.
func DefaultOptions() Options {
	return Options{
		MaxIterations:    200,
		AngleTolerance:   1e-3,
		ShiftTolerance:   1e-3,
		SimplexTolerance: 1e-4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.AngleTolerance <= 0 {
		o.AngleTolerance = d.AngleTolerance
	}
	if o.ShiftTolerance <= 0 {
		o.ShiftTolerance = d.ShiftTolerance
	}
	if o.SimplexTolerance <= 0 {
		o.SimplexTolerance = d.SimplexTolerance
	}
	return o
}

// Estimate recovers the rotation (degrees) and lateral shift (Å) that best
// verticalize and center the image. A zero-dynamic-range image fails
// non-fatally: the zero transform is returned together with
// ErrDegenerateImage so the caller can decide how to proceed.
func Estimate(img *models.Image, opts Options) (models.AlignmentResult, error) {
	opts = opts.withDefaults()

	work, err := prepare(img)
	if err != nil {
		return models.AlignmentResult{Converged: true}, err
	}

	// Stage 1: coarse rotation. Concentrating mass into a narrow vertical
	// ridge maximizes the top percentiles of the column-sum projection.
	coarse, coarseOK := minimizeScalar(func(angle float64) float64 {
		return rotationScore(work, angle)
	}, -90, 90, opts.AngleTolerance, opts.MaxIterations)

	// Stage 2: joint (angle, dy, dx) simplex refinement against the mean
	// of six symmetric variants. Only the angle is kept; the shift found
	// here is not robust enough.
	angle, simplexOK := refineRotation(work, coarse, opts)

	// Stage 3: sub-pixel shift that mirror-symmetrizes the x-profile of
	// the rotated image.
	dx, shiftOK := fineShift(work, angle, opts)

	return models.AlignmentResult{
		Angle:     angle,
		ShiftX:    dx * img.PixelSize,
		Converged: coarseOK && simplexOK && shiftOK,
	}, nil
}

// prepare thresholds the image at 20% of its dynamic range above the
// corner background and rescales to [0,1].
func prepare(img *models.Image) (*models.Image, error) {
	ny, nx := img.Height, img.Width
	if ny < 3 || nx < 3 {
		return nil, fmt.Errorf("%w: image %dx%d too small for alignment", models.ErrInvalidParameter, nx, ny)
	}
	if img.IsConstant() {
		return nil, fmt.Errorf("%w: constant image", models.ErrDegenerateImage)
	}
	background := (img.At(0, 0) + img.At(1, 1) + img.At(2, 2) +
		img.At(ny-3, nx-3) + img.At(ny-2, nx-2) + img.At(ny-1, nx-1)) / 6
	_, max := img.MinMax()
	if max <= background {
		return nil, fmt.Errorf("%w: background equals maximum", models.ErrDegenerateImage)
	}
	thresh := (max-background)*0.2 + background
	scale := 1.0 / (max - thresh)
	work := models.NewImage(nx, ny, img.PixelSize)
	for i, v := range img.Data {
		w := (v - thresh) * scale
		if w < 0 {
			w = 0
		}
		work.Data[i] = w
	}
	return work, nil
}

// columnSums projects the image onto the horizontal axis.
func columnSums(img *models.Image) []float64 {
	sums := make([]float64, img.Width)
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*img.Width : (y+1)*img.Width]
		for x, v := range row {
			sums[x] += v
		}
	}
	return sums
}

// rotationScore is the negative sum of the top percentiles of the
// column-sum projection after rotating by angle. More robust than the
// maximum alone.
func rotationScore(work *models.Image, angle float64) float64 {
	rotated, err := imagegrid.RotateShift(work, angle, imagegrid.Shift{}, imagegrid.Shift{}, nil, imagegrid.OrderBilinear)
	if err != nil {
		return math.Inf(1)
	}
	proj := columnSums(rotated)
	score := 0.0
	for _, p := range []float64{100, 95, 90, 85, 80} {
		score += imagegrid.Percentile(proj, p)
	}
	return -score
}

// refineRotation runs the Nelder-Mead refinement over (angle, dy, dx) and
// returns the refined angle plus a convergence flag.
func refineRotation(work *models.Image, angle0 float64, opts Options) (float64, bool) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return symmetryScore(work, x[0], x[1], x[2])
		},
	}
	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   opts.SimplexTolerance,
			Iterations: 20,
		},
	}
	result, err := optimize.Minimize(problem, []float64{angle0, 0, 0}, settings, &optimize.NelderMead{})
	if result == nil || len(result.X) != 3 {
		return angle0, false
	}
	converged := err == nil && result.Status == optimize.FunctionConvergence
	return result.X[0], converged
}

// symmetryScore is the mean absolute deviation between six symmetric
// variants of the shifted/rotated image (itself, its 180° rotation, and
// the vertical and horizontal flips of both) and their average.
func symmetryScore(work *models.Image, angle, dy, dx float64) float64 {
	pre := imagegrid.Shift{Y: dy, X: dx}
	t1, err1 := imagegrid.RotateShift(work, angle, pre, imagegrid.Shift{}, nil, imagegrid.OrderBilinear)
	t2, err2 := imagegrid.RotateShift(work, angle+180, pre, imagegrid.Shift{}, nil, imagegrid.OrderBilinear)
	if err1 != nil || err2 != nil {
		return math.Inf(1)
	}
	variants := []*models.Image{
		t1, t2,
		imagegrid.FlipVertical(t1), imagegrid.FlipVertical(t2),
		imagegrid.FlipHorizontal(t1), imagegrid.FlipHorizontal(t2),
	}
	n := len(work.Data)
	mean := make([]float64, n)
	for _, v := range variants {
		for i, s := range v.Data {
			mean[i] += s
		}
	}
	for i := range mean {
		mean[i] /= float64(len(variants))
	}
	errSum := 0.0
	for _, v := range variants {
		for i, s := range v.Data {
			errSum += math.Abs(s - mean[i])
		}
	}
	return errSum / float64(len(variants)*n)
}

// fineShift finds the sub-pixel lateral shift (pixels) that best
// mirror-symmetrizes the x-profile of the rotated image about its center,
// with a 0.5-pixel parity correction for even widths.
func fineShift(work *models.Image, angle float64, opts Options) (float64, bool) {
	rotated, err := imagegrid.RotateShift(work, angle, imagegrid.Shift{}, imagegrid.Shift{}, nil, imagegrid.OrderBilinear)
	if err != nil {
		return 0, false
	}
	y := columnSums(rotated)
	n := len(y)
	maxVal := 0.0
	for _, v := range y {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		return 0, false
	}
	for i := range y {
		y[i] /= maxVal
		if y[i] < 0.2 {
			y[i] = 0
		}
	}

	// Occupied extent from the 50% threshold drives the search bound.
	minIdx, maxIdx := -1, -1
	for i, v := range y {
		if v > 0.5 {
			if minIdx < 0 {
				minIdx = i
			}
			maxIdx = i
		}
	}
	if minIdx < 0 {
		return 0, false
	}
	maxShift := math.Abs(float64(maxIdx-n/2)-float64(n/2-minIdx)) * 1.5

	// Tile the profile threefold so the search never reads out of bounds.
	xs := make([]float64, 3*n)
	vals := make([]float64, 3*n)
	for i := 0; i < 3*n; i++ {
		xs[i] = float64(i)
		vals[i] = y[i%n]
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, vals); err != nil {
		return 0, false
	}
	score := func(dx float64) float64 {
		tmp := make([]float64, n)
		for j := 0; j < n; j++ {
			tmp[j] = pl.Predict(float64(n+j) - dx)
		}
		s := 0.0
		for j := 0; j < n; j++ {
			s += math.Abs(tmp[j] - tmp[n-1-j])
		}
		return s
	}

	dx := 0.0
	converged := true
	if maxShift > 0 {
		dx, converged = minimizeScalar(score, -maxShift, maxShift, opts.ShiftTolerance, opts.MaxIterations)
	}
	if n%2 == 0 {
		dx += 0.5
	}
	return dx, converged
}

// minimizeScalar is a bounded golden-section minimizer. It returns the
// best point found and whether the bracket shrank below tol within the
// iteration budget.
func minimizeScalar(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, bool) {
	const invPhi = 0.6180339887498949
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < maxIter; i++ {
		if b-a < tol {
			return (a + b) / 2, true
		}
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2, b-a < tol
}
