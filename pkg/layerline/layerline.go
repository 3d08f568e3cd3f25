// Package layerline predicts the layer-line peak positions a helical
// symmetry would produce in a power spectrum, grouped by meridional order,
// together with a deterministic ordering helper for assigning maximally
// distinguishable display indices to adjacent groups.
package layerline

import (
	"fmt"
	"math"

	"helicalindex/internal/models"
	"helicalindex/pkg/bessel"
)

// tiltFloor replaces layer-line horizontal positions whose tilt-corrected
// discriminant goes negative.
const tiltFloor = 1e-6

// Positions predicts the layer-line peak coordinates for the given
// symmetry out to the resolution cutoff (Å). The meridional orders come
// from the order spec (automatic derivation or an explicit list); each
// group holds the mirrored (sx, sy) pairs contributed by Bessel orders
// that are integer multiples of csym.
func Positions(p models.SymmetryParameters, cutoffRes float64, orders models.OrderSpec) ([]models.LayerLineGroup, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cutoffRes <= 0 {
		return nil, fmt.Errorf("%w: cutoff resolution must be > 0, got %g", models.ErrInvalidParameter, cutoffRes)
	}

	pitch := p.Pitch()
	dsP := 1.0 / pitch
	smax := 1.0 / cutoffRes
	tf := 1.0 / math.Cos(p.Tilt*math.Pi/180)
	tf2 := math.Sin(p.Tilt * math.Pi / 180)

	ms := orders.Orders(p.Rise, cutoffRes)
	groups := make([]models.LayerLineGroup, 0, len(ms))
	for _, m := range ms {
		sy0 := float64(m) / p.Rise

		// Integer contributions within the frequency range; truncation
		// toward zero on both bounds.
		top := int((smax - sy0) / dsP)
		bottom := -int(math.Abs(-smax-sy0) / dsP)

		var sx, sy []float64
		for i := bottom; i <= top; i++ {
			if i%p.Csym != 0 {
				continue
			}
			y := sy0 + float64(i)*dsP
			var x float64
			if i != 0 {
				x = bessel.FirstPeak(i) / (2 * math.Pi * p.Radius)
			}
			if p.Tilt != 0 {
				y *= tf
				disc := x*x - (y*tf2)*(y*tf2)
				if disc < 0 {
					x = tiltFloor
				} else {
					x = math.Sqrt(disc)
				}
			}
			sx = append(sx, x)
			sy = append(sy, y)
		}

		// Mirror every pair across the meridian.
		n := len(sx)
		px := make([]float64, 0, 2*n)
		py := make([]float64, 0, 2*n)
		px = append(px, sx...)
		for _, v := range sx {
			px = append(px, -v)
		}
		py = append(py, sy...)
		py = append(py, sy...)

		groups = append(groups, models.LayerLineGroup{M: m, SX: px, SY: py})
	}
	return groups, nil
}

// DistinctOrdering returns a permutation of 0..n-1 beginning with 0, where
// each subsequent index greedily maximizes its distance from the
// second-most-recently chosen index among the remaining candidates. Ties
// keep the first-found maximum, so the result is deterministic. Used to
// assign maximally distinguishable display slots to adjacent m-groups.
func DistinctOrdering(n int) []int {
	if n <= 0 {
		return nil
	}
	ret := []int{0}
	if n == 1 {
		return ret
	}
	remaining := make([]int, 0, n-1)
	for i := 1; i < n; i++ {
		remaining = append(remaining, i)
	}
	for len(remaining) > 0 {
		// Reference is the second-most-recent pick (the last pick when
		// only one exists).
		ref := ret[len(ret)-1]
		if len(ret) >= 2 {
			ref = ret[len(ret)-2]
		}
		bestIdx := -1
		bestErr := 0
		for i, v := range remaining {
			err := v - ref
			if err < 0 {
				err = -err
			}
			if err > bestErr {
				bestErr = err
				bestIdx = i
			}
		}
		ret = append(ret, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ret
}
