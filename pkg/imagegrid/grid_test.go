package imagegrid

import (
	"errors"
	"math"
	"testing"

	"helicalindex/internal/models"
)

// TestPercentile verifies percentile interpolation on a known ramp
func TestPercentile(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4}

	if got := Percentile(data, 0); got != 0 {
		t.Errorf("Expected 0th percentile 0, got %f", got)
	}
	if got := Percentile(data, 100); got != 4 {
		t.Errorf("Expected 100th percentile 4, got %f", got)
	}
	if got := Percentile(data, 50); math.Abs(got-2) > 1e-12 {
		t.Errorf("Expected 50th percentile 2, got %f", got)
	}
	// Interpolated ranks: h = p/100 * (n-1)
	if got := Percentile(data, 95); math.Abs(got-3.8) > 1e-12 {
		t.Errorf("Expected 95th percentile 3.8, got %f", got)
	}
	if got := Percentile(data, 85); math.Abs(got-3.4) > 1e-12 {
		t.Errorf("Expected 85th percentile 3.4, got %f", got)
	}
	if got := Percentile([]float64{7}, 30); got != 7 {
		t.Errorf("Expected single-sample percentile 7, got %f", got)
	}
}

// TestNormalize verifies that the low and high percentile values map
// exactly to 0 and 1
func TestNormalize(t *testing.T) {
	img := models.NewImage(4, 4, 1.0)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}

	out, err := Normalize(img, 0, 100)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	lo, hi := out.MinMax()
	if lo != 0 {
		t.Errorf("Expected minimum 0, got %f", lo)
	}
	if hi != 1 {
		t.Errorf("Expected maximum 1, got %f", hi)
	}

	// Ordering must be preserved
	for i := 1; i < len(out.Data); i++ {
		if out.Data[i] <= out.Data[i-1] {
			t.Errorf("Expected monotonic output, got %f <= %f at index %d",
				out.Data[i], out.Data[i-1], i)
		}
	}
}

// TestNormalizeConstantImage verifies that a constant image is rejected
func TestNormalizeConstantImage(t *testing.T) {
	img := models.NewImage(8, 8, 1.0)
	for i := range img.Data {
		img.Data[i] = 3.5
	}

	_, err := Normalize(img, 1, 99)
	if err == nil {
		t.Fatal("Expected error for constant image, got nil")
	}
	if !errors.Is(err, models.ErrDegenerateImage) {
		t.Errorf("Expected ErrDegenerateImage, got %v", err)
	}
}

// TestTaperIdentity verifies that fractions outside (0,1) disable tapering
func TestTaperIdentity(t *testing.T) {
	img := models.NewImage(16, 16, 1.0)
	for i := range img.Data {
		img.Data[i] = float64(i%7) + 1
	}

	out := Taper(img, 1.0, 0.0, 0.1)
	if out != img {
		t.Error("Expected input returned unchanged when both fractions are disabled")
	}
}

// TestTaperProfile verifies the mask is 1 near the center and 0 beyond the
// roll-off region
func TestTaperProfile(t *testing.T) {
	img := models.NewImage(64, 64, 1.0)
	for i := range img.Data {
		img.Data[i] = 1
	}

	out := Taper(img, 0.5, 0.5, 0.1)

	// Center pixel is well inside the flat region
	if v := out.At(32, 32); v != 1 {
		t.Errorf("Expected center value 1, got %f", v)
	}
	// Corner is beyond fraction+slope along both axes
	if v := out.At(0, 0); v != 0 {
		t.Errorf("Expected corner value 0, got %f", v)
	}
	// Values never exceed the input
	for i, v := range out.Data {
		if v < 0 || v > 1 {
			t.Fatalf("Expected mask in [0,1], got %f at index %d", v, i)
		}
	}
}

// TestRotateShiftNoOp verifies that an all-zero transform returns the input
func TestRotateShiftNoOp(t *testing.T) {
	img := models.NewImage(8, 8, 1.0)
	img.Set(3, 4, 2.5)

	out, err := RotateShift(img, 0, Shift{}, Shift{}, nil, OrderBilinear)
	if err != nil {
		t.Fatalf("RotateShift failed: %v", err)
	}
	if out != img {
		t.Error("Expected input returned unchanged for identity transform")
	}
}

// TestRotateShiftTranslation verifies that a pure post-shift moves a point
// source by the expected offset
func TestRotateShiftTranslation(t *testing.T) {
	img := models.NewImage(16, 16, 1.0)
	img.Set(8, 8, 1.0)

	out, err := RotateShift(img, 0, Shift{}, Shift{Y: 2, X: 3}, nil, OrderBilinear)
	if err != nil {
		t.Fatalf("RotateShift failed: %v", err)
	}

	if v := out.At(10, 11); math.Abs(v-1) > 1e-9 {
		t.Errorf("Expected shifted point at (10,11) with value 1, got %f", v)
	}
	if v := out.At(8, 8); math.Abs(v) > 1e-9 {
		t.Errorf("Expected original position cleared, got %f", v)
	}
}

// TestRotateShiftRotation verifies a 90 degree rotation about the center
func TestRotateShiftRotation(t *testing.T) {
	img := models.NewImage(17, 17, 1.0)
	img.Set(8, 12, 1.0) // 4 pixels right of center

	out, err := RotateShift(img, 90, Shift{}, Shift{}, nil, OrderBilinear)
	if err != nil {
		t.Fatalf("RotateShift failed: %v", err)
	}

	// Total mass must be preserved for an interior point source
	var sum float64
	for _, v := range out.Data {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("Expected total mass 1 after rotation, got %f", sum)
	}

	// The point must have moved onto the vertical axis, 4 pixels from center
	onAxis := math.Max(out.At(4, 8), out.At(12, 8))
	if onAxis < 0.9 {
		t.Errorf("Expected point source on the vertical axis after 90 deg rotation, max axis value %f", onAxis)
	}
}

// TestFlip verifies vertical and horizontal mirroring
func TestFlip(t *testing.T) {
	img := models.NewImage(3, 2, 1.0)
	img.Set(0, 0, 1)
	img.Set(0, 2, 2)
	img.Set(1, 1, 3)

	fv := FlipVertical(img)
	if fv.At(1, 0) != 1 || fv.At(1, 2) != 2 || fv.At(0, 1) != 3 {
		t.Error("FlipVertical did not mirror rows")
	}

	fh := FlipHorizontal(img)
	if fh.At(0, 2) != 1 || fh.At(0, 0) != 2 || fh.At(1, 1) != 3 {
		t.Error("FlipHorizontal did not mirror columns")
	}
}
