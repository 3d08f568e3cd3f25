package imagegrid

import (
	"fmt"
	"math"

	"helicalindex/internal/models"
)

// Shift is a (y, x) displacement in pixels.
type Shift struct {
	Y, X float64
}

// Interpolation orders accepted by RotateShift and SampleAt.
const (
	OrderNearest  = 0
	OrderBilinear = 1
	OrderCubic    = 3
)

// RotateShift composes a pre-shift, a rotation about center (image center
// when nil) and a post-shift into a single affine resample with constant
// zero fill outside the input bounds. Angles are in degrees. When the angle
// and both shifts are zero the input image is returned unchanged.
//
// For every output pixel o (in (y, x) coordinates) the sampled input
// coordinate is R(angle)·(o - post - center) + center - pre, so the
// pre-shift acts in input space and the post-shift in output space.
func RotateShift(img *models.Image, angleDeg float64, preShift, postShift Shift, center *Shift, order int) (*models.Image, error) {
	if angleDeg == 0 && preShift == (Shift{}) && postShift == (Shift{}) {
		return img, nil
	}
	if order != OrderNearest && order != OrderBilinear && order != OrderCubic {
		return nil, fmt.Errorf("%w: unsupported interpolation order %d", models.ErrInvalidParameter, order)
	}
	cy := float64(img.Height / 2)
	cx := float64(img.Width / 2)
	if center != nil {
		cy, cx = center.Y, center.X
	}
	a := angleDeg * math.Pi / 180
	cos, sin := math.Cos(a), math.Sin(a)

	// offset = -R·post + (center - R·center) - pre, applied as
	// in = R·out + offset.
	offY := -(cos*postShift.Y - sin*postShift.X)
	offX := -(sin*postShift.Y + cos*postShift.X)
	offY += cy - (cos*cy - sin*cx)
	offX += cx - (sin*cy + cos*cx)
	offY -= preShift.Y
	offX -= preShift.X

	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	for oy := 0; oy < img.Height; oy++ {
		fy := float64(oy)
		for ox := 0; ox < img.Width; ox++ {
			fx := float64(ox)
			sy := cos*fy - sin*fx + offY
			sx := sin*fy + cos*fx + offX
			out.Data[oy*img.Width+ox] = SampleAt(img, sy, sx, order)
		}
	}
	return out, nil
}

// SampleAt interpolates the image at the fractional coordinate (y, x) with
// the given order, returning 0 outside the grid.
func SampleAt(img *models.Image, y, x float64, order int) float64 {
	switch order {
	case OrderNearest:
		iy := int(math.Round(y))
		ix := int(math.Round(x))
		if iy < 0 || iy >= img.Height || ix < 0 || ix >= img.Width {
			return 0
		}
		return img.Data[iy*img.Width+ix]
	case OrderCubic:
		return sampleCubic(img, y, x)
	default:
		return sampleBilinear(img, y, x)
	}
}

func pixelOrZero(img *models.Image, y, x int) float64 {
	if y < 0 || y >= img.Height || x < 0 || x >= img.Width {
		return 0
	}
	return img.Data[y*img.Width+x]
}

func sampleBilinear(img *models.Image, y, x float64) float64 {
	y0 := math.Floor(y)
	x0 := math.Floor(x)
	dy := y - y0
	dx := x - x0
	iy, ix := int(y0), int(x0)

	v00 := pixelOrZero(img, iy, ix)
	v01 := pixelOrZero(img, iy, ix+1)
	v10 := pixelOrZero(img, iy+1, ix)
	v11 := pixelOrZero(img, iy+1, ix+1)
	return v00*(1-dy)*(1-dx) + v01*(1-dy)*dx + v10*dy*(1-dx) + v11*dy*dx
}

// sampleCubic is a separable Catmull-Rom resample over the 4x4
// neighborhood.
func sampleCubic(img *models.Image, y, x float64) float64 {
	y0 := math.Floor(y)
	x0 := math.Floor(x)
	dy := y - y0
	dx := x - x0
	iy, ix := int(y0), int(x0)

	var wy, wx [4]float64
	cubicWeights(dy, &wy)
	cubicWeights(dx, &wx)

	var sum float64
	for j := 0; j < 4; j++ {
		if wy[j] == 0 {
			continue
		}
		var row float64
		for i := 0; i < 4; i++ {
			row += wx[i] * pixelOrZero(img, iy+j-1, ix+i-1)
		}
		sum += wy[j] * row
	}
	return sum
}

// cubicWeights fills the Catmull-Rom kernel weights for samples at offsets
// -1, 0, 1, 2 from the base index, for a fractional position t in [0,1).
func cubicWeights(t float64, w *[4]float64) {
	t2 := t * t
	t3 := t2 * t
	w[0] = 0.5 * (-t3 + 2*t2 - t)
	w[1] = 0.5 * (3*t3 - 5*t2 + 2)
	w[2] = 0.5 * (-3*t3 + 4*t2 + t)
	w[3] = 0.5 * (t3 - t2)
}

// FlipVertical returns the image mirrored top-to-bottom.
func FlipVertical(img *models.Image) *models.Image {
	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	for y := 0; y < img.Height; y++ {
		src := img.Data[(img.Height-1-y)*img.Width : (img.Height-y)*img.Width]
		copy(out.Data[y*img.Width:(y+1)*img.Width], src)
	}
	return out
}

// FlipHorizontal returns the image mirrored left-to-right.
func FlipHorizontal(img *models.Image) *models.Image {
	out := models.NewImage(img.Width, img.Height, img.PixelSize)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			out.Data[y*img.Width+x] = img.Data[y*img.Width+(img.Width-1-x)]
		}
	}
	return out
}
