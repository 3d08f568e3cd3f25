// Package bessel indexes frequency-space pixels by the Bessel-function
// order whose first radial peak best matches the pixel's helix-scaled
// spatial frequency. The first-peak locations (the first zeros of J_n')
// are tabulated once and grown monotonically on demand.
package bessel

import (
	"math"
	"sync"
)

// peakScanStep is the coarse step used to bracket the first sign change of
// J_n' before bisection. The first maximum of J_n is well separated from
// the axis for every order, so a fixed step is safe.
const peakScanStep = 0.05

// table is the process-wide monotonically growing first-peak sequence;
// index n holds the first maximum of J_n. J_0 peaks at the origin.
var table = struct {
	sync.Mutex
	peaks []float64
}{peaks: []float64{0}}

// FirstPeak returns the location of the first maximum of J_n for n >= 0.
// Results are cached; negative orders use |n| since |J_-n| = |J_n|.
func FirstPeak(n int) float64 {
	if n < 0 {
		n = -n
	}
	table.Lock()
	defer table.Unlock()
	for len(table.peaks) <= n {
		table.peaks = append(table.peaks, firstPeak(len(table.peaks)))
	}
	return table.peaks[n]
}

// PeakTable is an immutable ascending sequence of first-peak locations for
// orders 0, 1, 2, ... where every tabulated peak is below the bound it was
// built with.
type PeakTable struct {
	peaks []float64
}

// BuildPeakTable tabulates first peaks for increasing orders until the
// next peak would meet or exceed xmax. The result always contains at least
// the order-0 entry.
func BuildPeakTable(xmax float64) *PeakTable {
	peaks := []float64{0}
	for n := 1; ; n++ {
		p := FirstPeak(n)
		if p >= xmax {
			break
		}
		peaks = append(peaks, p)
	}
	return &PeakTable{peaks: peaks}
}

// Len returns the number of tabulated orders.
func (t *PeakTable) Len() int { return len(t.peaks) }

// Peak returns the tabulated first-peak location for order n.
func (t *PeakTable) Peak(n int) float64 { return t.peaks[n] }

// Nearest returns the order whose first peak is closest to x. Ties go to
// the lower order since orders are scanned ascending with a strict
// improvement test.
func (t *PeakTable) Nearest(x float64) int {
	best := 0
	bestDist := math.Abs(t.peaks[0] - x)
	for n := 1; n < len(t.peaks); n++ {
		d := math.Abs(t.peaks[n] - x)
		if d < bestDist {
			bestDist = d
			best = n
		}
	}
	return best
}

// jnDeriv is the derivative of J_n, (J_{n-1}(x) - J_{n+1}(x)) / 2.
func jnDeriv(n int, x float64) float64 {
	return 0.5 * (math.Jn(n-1, x) - math.Jn(n+1, x))
}

// firstPeak locates the first zero of J_n' for n >= 1 by bracketing the
// first positive-to-negative sign change and bisecting.
func firstPeak(n int) float64 {
	if n == 0 {
		return 0
	}
	lo := peakScanStep
	dlo := jnDeriv(n, lo)
	hi := lo
	for {
		hi += peakScanStep
		dhi := jnDeriv(n, hi)
		if dlo > 0 && dhi <= 0 {
			break
		}
		lo, dlo = hi, dhi
	}
	for i := 0; i < 80; i++ {
		mid := 0.5 * (lo + hi)
		if jnDeriv(n, mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
