package simulate

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"helicalindex/internal/models"
)

var testParams = models.SymmetryParameters{
	Twist:  29.40,
	Rise:   21.92,
	Csym:   6,
	Radius: 20.0,
}

// TestHelixZeroBallRadius verifies the degenerate all-zero projection
func TestHelixZeroBallRadius(t *testing.T) {
	img, err := Helix(testParams, 0, 64, 64, 2.0, 0)
	if err != nil {
		t.Fatalf("Helix failed: %v", err)
	}
	if img.AnyNonzero() {
		t.Error("Expected all-zero image for zero ball radius")
	}
	if img.Width != 64 || img.Height != 64 || img.PixelSize != 2.0 {
		t.Errorf("Expected 64x64 image at 2.0 A/px, got %dx%d at %f",
			img.Width, img.Height, img.PixelSize)
	}
}

// TestHelixDensity verifies that a positive ball radius produces density
// concentrated around the helix walls
func TestHelixDensity(t *testing.T) {
	img, err := Helix(testParams, 5.0, 128, 128, 2.0, 0)
	if err != nil {
		t.Fatalf("Helix failed: %v", err)
	}
	if !img.AnyNonzero() {
		t.Fatal("Expected nonzero density")
	}
	for _, v := range img.Data {
		if v < 0 {
			t.Fatal("Expected non-negative density")
		}
	}

	// Density inside the helix radius must dominate density far outside it
	radiusPx := testParams.Radius / img.PixelSize
	var inside, outside float64
	cx := img.Width / 2
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			dx := math.Abs(float64(x - cx))
			if dx <= radiusPx {
				inside += img.At(y, x)
			} else if dx > radiusPx*2 {
				outside += img.At(y, x)
			}
		}
	}
	if inside <= outside {
		t.Errorf("Expected density concentrated within the helix radius, inside %f vs outside %f",
			inside, outside)
	}
}

// TestHelixCsymAzimuths verifies that a csym copy at the symmetry-related
// azimuth reproduces the same projection
func TestHelixCsymAzimuths(t *testing.T) {
	a, err := Helix(testParams, 5.0, 64, 64, 2.0, 0)
	if err != nil {
		t.Fatalf("Helix failed: %v", err)
	}
	b, err := Helix(testParams, 5.0, 64, 64, 2.0, 360.0/float64(testParams.Csym))
	if err != nil {
		t.Fatalf("Helix failed: %v", err)
	}
	for i := range a.Data {
		if math.Abs(a.Data[i]-b.Data[i]) > 1e-9 {
			t.Fatalf("Expected identical projection after a full csym step, pixel %d differs", i)
		}
	}
}

// TestHelixValidation verifies parameter rejection
func TestHelixValidation(t *testing.T) {
	bad := testParams
	bad.Radius = 0
	if _, err := Helix(bad, 5.0, 64, 64, 2.0, 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for zero radius, got %v", err)
	}
	if _, err := Helix(testParams, 5.0, 1, 64, 2.0, 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for tiny image, got %v", err)
	}
	if _, err := Helix(testParams, 5.0, 64, 64, 0, 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for zero pixel size, got %v", err)
	}
}

// TestAddNoiseDeterminism verifies seeded reproducibility and the zero
// multiple pass-through
func TestAddNoiseDeterminism(t *testing.T) {
	img, err := Helix(testParams, 5.0, 32, 32, 2.0, 0)
	if err != nil {
		t.Fatalf("Helix failed: %v", err)
	}

	if out := AddNoise(img, 0, rand.New(rand.NewSource(1))); out != img {
		t.Error("Expected input returned unchanged for zero noise")
	}

	a := AddNoise(img, 0.5, rand.New(rand.NewSource(42)))
	b := AddNoise(img, 0.5, rand.New(rand.NewSource(42)))
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatal("Expected identical noise for identical seeds")
		}
	}

	changed := false
	for i := range a.Data {
		if a.Data[i] != img.Data[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("Expected noise to perturb the image")
	}
}

// TestProjectVolume verifies projection of a centered point density
func TestProjectVolume(t *testing.T) {
	vol := models.NewVolume(16, 16, 16, 1.0)
	vol.Set(8, 8, 8, 1.0)

	img, err := ProjectVolume(vol, 0, 0)
	if err != nil {
		t.Fatalf("ProjectVolume failed: %v", err)
	}
	if img.Width != 16 || img.Height != 16 {
		t.Fatalf("Expected 16x16 projection, got %dx%d", img.Width, img.Height)
	}

	// The only density sits at the center, so after normalization the
	// brightest pixel is 1 at the center
	bestY, bestX, best := 0, 0, -1.0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if v := img.At(y, x); v > best {
				best, bestY, bestX = v, y, x
			}
		}
	}
	if bestY != 8 || bestX != 8 {
		t.Errorf("Expected brightest pixel at (8,8), got (%d,%d)", bestY, bestX)
	}
	if best != 1 {
		t.Errorf("Expected normalized maximum 1, got %f", best)
	}

	if _, err := ProjectVolume(nil, 0, 0); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for nil volume, got %v", err)
	}
}
