// Package spectrum computes power spectra of helical projection images.
// The forward path evaluates the Fourier transform of an image directly at
// an output frequency grid chosen by resolution cutoffs (a type-2
// non-uniform discrete Fourier transform), which decouples the spectral
// pixel spacing from the input sampling while preserving exact phase. An
// alternate path rescales an already-computed amplitude spectrum by cubic
// coordinate resampling.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"helicalindex/internal/models"
	"helicalindex/pkg/imagegrid"
)

// Transform evaluates the centered Fourier transform of the image on the
// frequency grid described by spec. Row iy of the result corresponds to
// the vertical frequency (iy - Height/2) * StepY, and the phase origin is
// at the image center, so the equator/meridian cross the grid center.
//
// The evaluation is the exact type-2 sum factored as F = Ey · M · Ex with
// Ey (out rows × image rows) and Ex (image cols × out cols) holding the
// complex exponentials; the two products are accumulated row by row.
func Transform(img *models.Image, spec models.FrequencyGridSpec) (*mat.CDense, error) {
	ny, nx := img.Height, img.Width
	ony, onx := spec.Height, spec.Width

	// Frequency step in cycles per input pixel along each axis. The output
	// half-extent reaches 1/cutoff in 1/Å, i.e. pixelSize/cutoff cycles
	// per pixel.
	dfy := img.PixelSize / spec.CutoffResY / float64(ony/2)
	dfx := img.PixelSize / spec.CutoffResX / float64(onx/2)

	ey := make([]complex128, ony*ny)
	for iy := 0; iy < ony; iy++ {
		fy := float64(iy-ony/2) * dfy
		for j := 0; j < ny; j++ {
			theta := -2 * math.Pi * fy * float64(j-ny/2)
			ey[iy*ny+j] = cmplx.Exp(complex(0, theta))
		}
	}
	ex := make([]complex128, nx*onx)
	for k := 0; k < nx; k++ {
		for ix := 0; ix < onx; ix++ {
			fx := float64(ix-onx/2) * dfx
			theta := -2 * math.Pi * fx * float64(k-nx/2)
			ex[k*onx+ix] = cmplx.Exp(complex(0, theta))
		}
	}

	// First pass: partial = Ey · M, collapsing the image rows.
	partial := make([]complex128, ony*nx)
	for iy := 0; iy < ony; iy++ {
		prow := partial[iy*nx : (iy+1)*nx]
		for j := 0; j < ny; j++ {
			e := ey[iy*ny+j]
			row := img.Data[j*nx : (j+1)*nx]
			for x, v := range row {
				prow[x] += e * complex(v, 0)
			}
		}
	}

	// Second pass: coef = partial · Ex, collapsing the image columns.
	coef := mat.NewCDense(ony, onx, nil)
	rowBuf := make([]complex128, onx)
	for iy := 0; iy < ony; iy++ {
		for i := range rowBuf {
			rowBuf[i] = 0
		}
		prow := partial[iy*nx : (iy+1)*nx]
		for k, v := range prow {
			if v == 0 {
				continue
			}
			erow := ex[k*onx : (k+1)*onx]
			for ix, e := range erow {
				rowBuf[ix] += v * e
			}
		}
		for ix, v := range rowBuf {
			coef.Set(iy, ix, v)
		}
	}
	return coef, nil
}

// Inverse reconstructs an image from Transform coefficients. It is exact
// only for the uniform, unrescaled grid (output size equal to the input
// size and both cutoffs equal to the Nyquist resolution), where the
// centered transform matrices are unitary up to 1/N.
func Inverse(coef *mat.CDense, pixelSize float64) *models.Image {
	ny, nx := coef.Dims()
	out := models.NewImage(nx, ny, pixelSize)
	for j := 0; j < ny; j++ {
		for k := 0; k < nx; k++ {
			var sum complex128
			for iy := 0; iy < ny; iy++ {
				fy := float64(iy-ny/2) / float64(ny)
				for ix := 0; ix < nx; ix++ {
					fx := float64(ix-nx/2) / float64(nx)
					theta := 2 * math.Pi * (fy*float64(j-ny/2) + fx*float64(k-nx/2))
					sum += coef.At(iy, ix) * cmplx.Exp(complex(0, theta))
				}
			}
			out.Data[j*nx+k] = real(sum) / float64(ny*nx)
		}
	}
	return out
}

// Compute produces the power spectrum and phase of a raw image on the
// requested frequency grid. The amplitude grid is optionally
// log-compressed, then band-filtered, then normalized to [0,1]; the phase
// grid is in radians. maxDim bounds the output size (0 disables the
// check).
func Compute(img *models.Image, spec models.FrequencyGridSpec, maxDim int) (*models.PowerSpectrum, error) {
	if err := spec.Validate(img.PixelSize, maxDim); err != nil {
		return nil, err
	}
	if !img.AnyNonzero() {
		return nil, fmt.Errorf("%w: all pixels are zero", models.ErrDegenerateImage)
	}
	coef, err := Transform(img, spec)
	if err != nil {
		return nil, err
	}

	amp := models.NewImage(spec.Width, spec.Height, img.PixelSize)
	phase := models.NewImage(spec.Width, spec.Height, img.PixelSize)
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			c := coef.At(y, x)
			amp.Data[y*spec.Width+x] = cmplx.Abs(c)
			phase.Data[y*spec.Width+x] = cmplx.Phase(c)
		}
	}
	amp, err = postProcess(amp, spec)
	if err != nil {
		return nil, err
	}
	return &models.PowerSpectrum{
		Amplitude: amp,
		Phase:     phase,
		StepX:     spec.StepX(),
		StepY:     spec.StepY(),
	}, nil
}

// Rescale maps an already-computed amplitude spectrum onto the requested
// frequency grid by cubic coordinate resampling; no phase is obtainable on
// this path. nyquistRes is the Nyquist resolution of the input spectrum
// (twice the pixel size of the image it came from).
func Rescale(spec2d *models.Image, nyquistRes float64, spec models.FrequencyGridSpec, maxDim int) (*models.PowerSpectrum, error) {
	if err := spec.Validate(nyquistRes/2, maxDim); err != nil {
		return nil, err
	}
	if !spec2d.AnyNonzero() {
		return nil, fmt.Errorf("%w: all pixels are zero", models.ErrDegenerateImage)
	}
	ny, nx := spec2d.Height, spec2d.Width
	out := models.NewImage(spec.Width, spec.Height, spec2d.PixelSize)
	for oy := 0; oy < spec.Height; oy++ {
		ry := float64(oy-spec.Height/2) / float64(spec.Height/2)
		sy := ry*(nyquistRes/spec.CutoffResY)*float64(ny/2) + float64(ny/2)
		for ox := 0; ox < spec.Width; ox++ {
			rx := float64(ox-spec.Width/2) / float64(spec.Width/2)
			sx := rx*(nyquistRes/spec.CutoffResX)*float64(nx/2) + float64(nx/2)
			out.Data[oy*spec.Width+ox] = imagegrid.SampleAt(spec2d, sy, sx, imagegrid.OrderCubic)
		}
	}
	amp, err := postProcess(out, spec)
	if err != nil {
		return nil, err
	}
	return &models.PowerSpectrum{
		Amplitude: amp,
		StepX:     spec.StepX(),
		StepY:     spec.StepY(),
	}, nil
}

// postProcess applies the shared amplitude pipeline: optional log
// compression, band filtering, then min/max normalization to [0,1].
// Non-finite values propagate as ErrComputation.
func postProcess(amp *models.Image, spec models.FrequencyGridSpec) (*models.Image, error) {
	if spec.LogAmplitude {
		logged := models.NewImage(amp.Width, amp.Height, amp.PixelSize)
		for i, v := range amp.Data {
			logged.Data[i] = math.Log(math.Abs(v))
		}
		amp = logged
	}
	if !amp.AllFinite() {
		return nil, fmt.Errorf("%w: amplitude grid", models.ErrComputation)
	}
	amp = imagegrid.BandFilter(amp, spec.LowPassFraction, spec.HighPassFraction)
	norm, err := imagegrid.Normalize(amp, 0, 100)
	if err != nil {
		return nil, err
	}
	if !norm.AllFinite() {
		return nil, fmt.Errorf("%w: normalized amplitude grid", models.ErrComputation)
	}
	return norm, nil
}
