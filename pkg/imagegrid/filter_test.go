package imagegrid

import (
	"math"
	"testing"

	"helicalindex/internal/models"
)

// TestBandFilterDisabled verifies that fractions outside (0,1) bypass the
// filter entirely
func TestBandFilterDisabled(t *testing.T) {
	img := models.NewImage(8, 8, 1.0)
	img.Set(2, 3, 1.0)

	if out := BandFilter(img, 0, 0); out != img {
		t.Error("Expected input returned unchanged with both filters disabled")
	}
	if out := BandFilter(img, 1.0, -0.5); out != img {
		t.Error("Expected input returned unchanged for out-of-range fractions")
	}
}

// TestBandFilterLowPass verifies that low-pass filtering attenuates a high
// frequency stripe pattern more than a smooth one
func TestBandFilterLowPass(t *testing.T) {
	n := 32
	smooth := models.NewImage(n, n, 1.0)
	stripes := models.NewImage(n, n, 1.0)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			smooth.Set(y, x, 1+math.Cos(2*math.Pi*float64(x)/float64(n)))
			stripes.Set(y, x, 1+math.Cos(math.Pi*float64(x))) // Nyquist stripes
		}
	}

	fs := BandFilter(smooth, 0.25, 0)
	ft := BandFilter(stripes, 0.25, 0)

	ratioSmooth := contrast(fs) / contrast(smooth)
	ratioStripes := contrast(ft) / contrast(stripes)
	if ratioStripes >= ratioSmooth {
		t.Errorf("Expected stronger attenuation at Nyquist, got ratios %f (stripes) vs %f (smooth)",
			ratioStripes, ratioSmooth)
	}
	if ratioStripes > 0.1 {
		t.Errorf("Expected Nyquist stripes nearly removed, attenuation ratio %f", ratioStripes)
	}
}

// TestBandFilterHighPass verifies that high-pass filtering removes the
// constant component
func TestBandFilterHighPass(t *testing.T) {
	n := 16
	img := models.NewImage(n, n, 1.0)
	for i := range img.Data {
		img.Data[i] = 5.0
	}

	out := BandFilter(img, 0, 0.5)
	for i, v := range out.Data {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("Expected constant image zeroed by high pass, got %f at index %d", v, i)
		}
	}
}

func contrast(img *models.Image) float64 {
	lo, hi := img.MinMax()
	return hi - lo
}
