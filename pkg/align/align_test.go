package align

import (
	"errors"
	"math"
	"testing"

	"helicalindex/internal/models"
)

// ridgeImage renders a straight Gaussian ridge through the image center,
// inclined by angleDeg from the vertical and offset laterally by dx pixels.
func ridgeImage(n int, angleDeg, dx float64) *models.Image {
	img := models.NewImage(n, n, 1.0)
	cy, cx := float64(n/2), float64(n/2)
	slope := math.Tan(angleDeg * math.Pi / 180)
	for y := 0; y < n; y++ {
		ridgeX := cx + slope*(float64(y)-cy) + dx
		for x := 0; x < n; x++ {
			d := float64(x) - ridgeX
			img.Set(y, x, math.Exp(-d*d/2))
		}
	}
	return img
}

// TestEstimateVerticalRidge verifies that a centered vertical ridge needs
// no transform
func TestEstimateVerticalRidge(t *testing.T) {
	img := ridgeImage(33, 0, 0)

	res, err := Estimate(img, DefaultOptions())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(res.Angle) > 0.5 {
		t.Errorf("Expected angle near 0, got %f", res.Angle)
	}
	if math.Abs(res.ShiftX) > 0.5 {
		t.Errorf("Expected shift near 0, got %f", res.ShiftX)
	}
}

// TestEstimateInclinedRidge verifies recovery of a known rotation and
// lateral offset
func TestEstimateInclinedRidge(t *testing.T) {
	img := ridgeImage(64, 7, 1.3)

	res, err := Estimate(img, DefaultOptions())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if math.Abs(res.Angle-7) > 1.0 {
		t.Errorf("Expected angle near 7 degrees, got %f", res.Angle)
	}
	// Centering an image offset by +1.3 pixels needs a -1.3 pixel shift
	if math.Abs(res.ShiftX+1.3) > 1.0 {
		t.Errorf("Expected shift near -1.3, got %f", res.ShiftX)
	}
}

// TestEstimateDegenerateImage verifies the non-fatal zero-range failure
func TestEstimateDegenerateImage(t *testing.T) {
	img := models.NewImage(16, 16, 1.0)

	res, err := Estimate(img, DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for zero image, got nil")
	}
	if !errors.Is(err, models.ErrDegenerateImage) {
		t.Errorf("Expected ErrDegenerateImage, got %v", err)
	}
	if res.Angle != 0 || res.ShiftX != 0 {
		t.Errorf("Expected zero transform with the error, got angle %f shift %f",
			res.Angle, res.ShiftX)
	}
}

// TestEstimateTinyImage verifies size validation
func TestEstimateTinyImage(t *testing.T) {
	img := models.NewImage(2, 2, 1.0)

	_, err := Estimate(img, DefaultOptions())
	if !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for tiny image, got %v", err)
	}
}

// TestMinimizeScalar verifies the golden-section search on a parabola
func TestMinimizeScalar(t *testing.T) {
	f := func(x float64) float64 { return (x - 1.7) * (x - 1.7) }

	x, ok := minimizeScalar(f, -10, 10, 1e-6, 200)
	if !ok {
		t.Error("Expected convergence on a smooth parabola")
	}
	if math.Abs(x-1.7) > 1e-5 {
		t.Errorf("Expected minimum near 1.7, got %f", x)
	}
}

// TestEstimateRadialRange verifies radius and mask estimates on a two-wall
// tube profile
func TestEstimateRadialRange(t *testing.T) {
	img := models.NewImage(64, 32, 2.0)
	for y := 0; y < img.Height; y++ {
		img.Set(y, 22, 1.0) // 10 px left of center
		img.Set(y, 42, 1.0) // 10 px right of center
	}

	radius, mask, err := EstimateRadialRange(img, 0.2)
	if err != nil {
		t.Fatalf("EstimateRadialRange failed: %v", err)
	}
	if math.Abs(radius-20) > 1e-9 {
		t.Errorf("Expected radius 20 A, got %f", radius)
	}
	if math.Abs(mask-20) > 1e-9 {
		t.Errorf("Expected mask radius 20 A, got %f", mask)
	}
}

// TestEstimateRadialRangeFlat verifies rejection of a flat projection
func TestEstimateRadialRangeFlat(t *testing.T) {
	img := models.NewImage(32, 8, 1.0)
	for i := range img.Data {
		img.Data[i] = 1
	}

	_, _, err := EstimateRadialRange(img, 0.2)
	if !errors.Is(err, models.ErrDegenerateImage) {
		t.Errorf("Expected ErrDegenerateImage for flat projection, got %v", err)
	}
}
