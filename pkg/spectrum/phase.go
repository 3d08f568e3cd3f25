package spectrum

import (
	"math"

	"helicalindex/internal/models"
)

// PhaseDegrees converts a radian phase grid to degrees wrapped to [0,360)
// for display.
func PhaseDegrees(phase *models.Image) *models.Image {
	out := models.NewImage(phase.Width, phase.Height, phase.PixelSize)
	for i, v := range phase.Data {
		d := math.Mod(v*180/math.Pi+360, 360)
		if d < 0 {
			d += 360
		}
		out.Data[i] = d
	}
	return out
}

// PhaseDifference returns the phase difference across the meridian in
// degrees, folded into [0,180]: 0 indicates an even Bessel order, 180 an
// odd one. For even-width grids the unmatched leftmost column is set to
// 90° and the remaining columns are mirrored about the center column.
func PhaseDifference(phase *models.Image) *models.Image {
	ny, nx := phase.Height, phase.Width
	diff := models.NewImage(nx, ny, phase.PixelSize)
	for y := 0; y < ny; y++ {
		row := phase.Data[y*nx : (y+1)*nx]
		drow := diff.Data[y*nx : (y+1)*nx]
		if nx%2 == 1 {
			for x := 0; x < nx; x++ {
				drow[x] = row[x] - row[nx-1-x]
			}
		} else {
			drow[0] = math.Pi / 2
			for x := 1; x < nx; x++ {
				drow[x] = row[x] - row[nx-x]
			}
		}
	}
	// Fold into [0,180]° via acos(cos(d)).
	for i, v := range diff.Data {
		diff.Data[i] = math.Acos(math.Cos(v)) * 180 / math.Pi
	}
	return diff
}
