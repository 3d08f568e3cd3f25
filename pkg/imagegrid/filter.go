package imagegrid

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"helicalindex/internal/models"
)

// BandFilter applies Gaussian low-pass and/or complementary high-pass
// filters in frequency space. Filter radii are fractions of Nyquist; a
// fraction outside (0,1) disables that filter. With both filters disabled
// the input image is returned unchanged.
func BandFilter(img *models.Image, lowPassFraction, highPassFraction float64) *models.Image {
	lp := lowPassFraction > 0 && lowPassFraction < 1
	hp := highPassFraction > 0 && highPassFraction < 1
	if !lp && !hp {
		return img
	}

	grid := make([][]complex128, img.Height)
	for y := 0; y < img.Height; y++ {
		row := make([]complex128, img.Width)
		for x := 0; x < img.Width; x++ {
			row[x] = complex(img.Data[y*img.Width+x], 0)
		}
		grid[y] = row
	}
	coef := fft.FFT2(grid)

	// Radial Gaussian weights evaluated on the unshifted frequency layout;
	// fy/fx are the centered coordinates normalized by the half-extents.
	var fLow, fHigh float64
	if lp {
		fLow = math.Ln2 / (lowPassFraction * lowPassFraction)
	}
	if hp {
		fHigh = math.Ln2 / (highPassFraction * highPassFraction)
	}
	for y := range coef {
		fy := centeredCoord(y, img.Height)
		for x := range coef[y] {
			fx := centeredCoord(x, img.Width)
			r2 := fy*fy + fx*fx
			w := 1.0
			if lp {
				w *= math.Exp(-fLow * r2)
			}
			if hp {
				w *= 1.0 - math.Exp(-fHigh*r2)
			}
			coef[y][x] *= complex(w, 0)
		}
	}

	back := fft.IFFT2(coef)
	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.Data[y*img.Width+x] = cmplx.Abs(back[y][x])
		}
	}
	return out
}

// centeredCoord maps an unshifted frequency index to its centered
// coordinate divided by the half-extent, so index 0 maps to 0 and the
// Nyquist index maps to ±1.
func centeredCoord(i, n int) float64 {
	c := (i+n/2)%n - n/2
	return float64(c) / float64(n/2)
}
