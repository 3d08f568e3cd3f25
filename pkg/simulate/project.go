package simulate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"helicalindex/internal/models"
)

// ProjectVolume rotates the volume by azimuth around the vertical axis
// and tilt around the horizontal axis (both degrees), then projects it
// along the viewing direction into a 2-D image by summing. Samples are
// interpolated trilinearly and the result is normalized to [0, 1].
func ProjectVolume(vol *models.Volume, azimuth, tilt float64) (*models.Image, error) {
	if vol == nil || vol.Width < 2 || vol.Height < 2 || vol.Depth < 2 {
		return nil, fmt.Errorf("%w: volume must be at least 2x2x2", models.ErrInvalidParameter)
	}
	az := azimuth * math.Pi / 180
	ti := tilt * math.Pi / 180
	ca, sa := math.Cos(az), math.Sin(az)
	ct, st := math.Cos(ti), math.Sin(ti)
	// Rotation applied to sample coordinates: azimuth about z, then
	// tilt about x. Coordinates are (z, y, x) offsets from the center.
	azRot := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, ca, -sa,
		0, sa, ca,
	})
	tiltRot := mat.NewDense(3, 3, []float64{
		ct, -st, 0,
		st, ct, 0,
		0, 0, 1,
	})
	var rot mat.Dense
	rot.Mul(tiltRot, azRot)

	out := models.NewImage(vol.Width, vol.Depth, vol.VoxelSize)
	cz := float64(vol.Depth) / 2
	cy := float64(vol.Height) / 2
	cx := float64(vol.Width) / 2
	v := make([]float64, 3)
	for z := 0; z < vol.Depth; z++ {
		for x := 0; x < vol.Width; x++ {
			sum := 0.0
			for y := 0; y < vol.Height; y++ {
				v[0] = float64(z) - cz
				v[1] = float64(y) - cy
				v[2] = float64(x) - cx
				sz := rot.At(0, 0)*v[0] + rot.At(0, 1)*v[1] + rot.At(0, 2)*v[2] + cz
				sy := rot.At(1, 0)*v[0] + rot.At(1, 1)*v[1] + rot.At(1, 2)*v[2] + cy
				sx := rot.At(2, 0)*v[0] + rot.At(2, 1)*v[1] + rot.At(2, 2)*v[2] + cx
				sum += sampleTrilinear(vol, sz, sy, sx)
			}
			out.Set(z, x, sum)
		}
	}

	lo, hi := out.MinMax()
	if hi > lo {
		scale := 1 / (hi - lo)
		for i := range out.Data {
			out.Data[i] = (out.Data[i] - lo) * scale
		}
	}
	return out, nil
}

func sampleTrilinear(vol *models.Volume, z, y, x float64) float64 {
	z0 := int(math.Floor(z))
	y0 := int(math.Floor(y))
	x0 := int(math.Floor(x))
	fz, fy, fx := z-float64(z0), y-float64(y0), x-float64(x0)
	sum := 0.0
	for dz := 0; dz <= 1; dz++ {
		wz := 1 - fz
		if dz == 1 {
			wz = fz
		}
		for dy := 0; dy <= 1; dy++ {
			wy := 1 - fy
			if dy == 1 {
				wy = fy
			}
			for dx := 0; dx <= 1; dx++ {
				wx := 1 - fx
				if dx == 1 {
					wx = fx
				}
				sum += wz * wy * wx * voxelAt(vol, z0+dz, y0+dy, x0+dx)
			}
		}
	}
	return sum
}

func voxelAt(vol *models.Volume, z, y, x int) float64 {
	if z < 0 || z >= vol.Depth || y < 0 || y >= vol.Height || x < 0 || x >= vol.Width {
		return 0
	}
	return vol.At(z, y, x)
}
