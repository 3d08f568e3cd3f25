package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"helicalindex/internal/models"
	"helicalindex/pkg/align"
	"helicalindex/pkg/bessel"
	"helicalindex/pkg/cache"
	"helicalindex/pkg/config"
	"helicalindex/pkg/imagegrid"
	"helicalindex/pkg/layerline"
	"helicalindex/pkg/simulate"
	"helicalindex/pkg/spectrum"
)

func main() {
	// Parse command line arguments
	twist := flag.Float64("twist", 29.40, "Helical twist in degrees per subunit")
	rise := flag.Float64("rise", 21.92, "Helical rise in Angstrom per subunit")
	csym := flag.Int("csym", 6, "Cyclic symmetry order around the helical axis")
	radius := flag.Float64("radius", 20.0, "Helix radius in Angstrom")
	tilt := flag.Float64("tilt", 0.0, "Out-of-plane tilt of the helical axis in degrees")
	ballRadius := flag.Float64("ball-radius", 5.0, "Gaussian subunit radius in Angstrom")
	apix := flag.Float64("apix", 2.0, "Pixel size in Angstrom")
	imageSize := flag.Int("size", 256, "Simulated image side in pixels")
	spectrumSize := flag.Int("spectrum-size", 256, "Power spectrum side in pixels")
	cutoffRes := flag.Float64("cutoff-res", 8.0, "Resolution cutoff of the spectrum in Angstrom")
	noise := flag.Float64("noise", 0.0, "Noise level as a multiple of the signal standard deviation")
	seed := flag.Int64("seed", 0, "Random seed for noise generation (0: time-based)")
	configPath := flag.String("config", "helicalindex.yaml", "Configuration file path")
	saveConfig := flag.Bool("save-config", false, "Write the default configuration to the config path and exit")
	flag.Parse()

	if *saveConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Load configuration, falling back to defaults when the file is absent
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	params := models.SymmetryParameters{
		Twist:  *twist,
		Rise:   *rise,
		Csym:   *csym,
		Radius: *radius,
		Tilt:   *tilt,
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid symmetry parameters: %v", err)
	}
	if *imageSize > cfg.Limits.MaxImageDim {
		log.Fatalf("Image size %d exceeds configured limit %d", *imageSize, cfg.Limits.MaxImageDim)
	}

	fmt.Println("================================")
	fmt.Println("HELICAL INDEXING VIA LAYER LINE PREDICTION")
	fmt.Println("================================")
	fmt.Printf("twist=%.2f deg  rise=%.2f A  csym=%d  radius=%.1f A  tilt=%.1f deg\n",
		params.Twist, params.Rise, params.Csym, params.Radius, params.Tilt)
	fmt.Printf("pitch=%.2f A\n", params.Pitch())

	startTime := time.Now()

	// Simulate a projection of the helical lattice
	fmt.Println("\nSimulating helix projection...")
	img, err := simulate.Helix(params, *ballRadius, *imageSize, *imageSize, *apix, 0)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
	if *noise > 0 {
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		img = simulate.AddNoise(img, *noise, rand.New(rand.NewSource(s)))
		fmt.Printf("Added noise at %.2fx signal sigma (seed %d)\n", *noise, s)
	}
	img = imagegrid.Taper(img, 0.8, 0.8, 0.1)

	// Sanity-check the axis orientation of the simulated image
	res, err := align.Estimate(img, align.Options{
		MaxIterations:    cfg.Alignment.MaxIterations,
		AngleTolerance:   cfg.Alignment.AngleTolerance,
		ShiftTolerance:   cfg.Alignment.ShiftTolerance,
		SimplexTolerance: cfg.Alignment.SimplexTolerance,
	})
	if err != nil {
		log.Printf("Warning: alignment estimate failed: %v", err)
	} else {
		fmt.Printf("Estimated axis rotation %.2f deg, lateral shift %.2f A (converged: %v)\n",
			res.Angle, res.ShiftX, res.Converged)
	}

	// Compute the power spectrum, memoizing by the full parameter set
	fmt.Println("\nComputing power spectrum...")
	spec := models.FrequencyGridSpec{
		Width:            *spectrumSize,
		Height:           *spectrumSize,
		CutoffResX:       *cutoffRes,
		CutoffResY:       *cutoffRes,
		LowPassFraction:  0,
		HighPassFraction: 0.4,
		LogAmplitude:     true,
	}
	specCache := cache.New(cfg.Cache.MaxEntries)
	key := cache.Key(params.Twist, params.Rise, params.Csym, params.Radius, params.Tilt,
		*ballRadius, *apix, *imageSize, *spectrumSize, *cutoffRes, *noise, *seed)
	var ps *models.PowerSpectrum
	if cached, ok := specCache.Get(key); ok {
		ps = cached.(*models.PowerSpectrum)
	} else {
		ps, err = spectrum.Compute(img, spec, cfg.Limits.MaxSpectrumDim)
		if err != nil {
			log.Fatalf("Power spectrum computation failed: %v", err)
		}
		specCache.Put(key, ps)
	}

	// Predict layer lines and assign Bessel orders
	fmt.Println("Predicting layer lines...")
	groups, err := layerline.Positions(params, *cutoffRes, models.AutoOrders())
	if err != nil {
		log.Fatalf("Layer line prediction failed: %v", err)
	}
	orderMap, err := bessel.OrderMap(spec.Height, spec.Width, *cutoffRes, *cutoffRes, params.Radius, params.Tilt)
	if err != nil {
		log.Fatalf("Bessel order map failed: %v", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nAnalysis completed in %.2f seconds\n", elapsed.Seconds())

	reportLayerLines(ps, groups, orderMap)
}

// reportLayerLines samples the spectrum amplitude at every predicted layer
// line position and prints a per-order summary plus an overall contrast
// figure. Predicted peaks landing on bright spectrum pixels indicate that
// the symmetry parameters explain the image.
func reportLayerLines(ps *models.PowerSpectrum, groups []models.LayerLineGroup, orderMap *bessel.Map) {
	amp := ps.Amplitude
	cy, cx := amp.Height/2, amp.Width/2

	var total float64
	for _, v := range amp.Data {
		total += v
	}
	meanAmp := total / float64(len(amp.Data))

	fmt.Printf("\nLayer line match report:\n")
	fmt.Printf("========================\n")
	var sum float64
	var count int
	for _, g := range groups {
		var groupSum float64
		groupCount := 0
		for i := range g.SX {
			x := cx + int(math.Round(g.SX[i]/ps.StepX))
			y := cy + int(math.Round(g.SY[i]/ps.StepY))
			if x < 0 || x >= amp.Width || y < 0 || y >= amp.Height {
				continue
			}
			groupSum += amp.At(y, x)
			groupCount++
		}
		if groupCount == 0 {
			continue
		}
		fmt.Printf("m=%+d: %3d peaks on grid, mean amplitude %.3f\n", g.M, groupCount, groupSum/float64(groupCount))
		sum += groupSum
		count += groupCount
	}
	if count == 0 {
		fmt.Println("No predicted peaks fall on the spectrum grid")
		return
	}
	fmt.Printf("\nMean amplitude at %d predicted peaks: %.3f\n", count, sum/float64(count))
	fmt.Printf("Mean amplitude over full spectrum:    %.3f\n", meanAmp)
	if meanAmp > 0 {
		fmt.Printf("Contrast ratio: %.2f\n", (sum/float64(count))/meanAmp)
	}

	// Order assignment and phase parity along the first off-equatorial
	// layer line. A phase difference near 0 across the meridian indicates
	// an even Bessel order, near 180 an odd one.
	var phaseDiff *models.Image
	if ps.Phase != nil {
		phaseDiff = spectrum.PhaseDifference(ps.Phase)
	}
	for _, g := range groups {
		if g.M == 0 || len(g.SX) == 0 {
			continue
		}
		x := cx + int(math.Round(g.SX[0]/ps.StepX))
		y := cy + int(math.Round(g.SY[0]/ps.StepY))
		if x >= 0 && x < orderMap.Width && y >= 0 && y < orderMap.Height {
			fmt.Printf("Nearest Bessel order at first m=%+d peak: %d\n", g.M, orderMap.At(y, x))
			if phaseDiff != nil {
				deg := spectrum.PhaseDegrees(ps.Phase)
				fmt.Printf("Phase %.1f deg, across-meridian difference %.1f deg\n",
					deg.At(y, x), phaseDiff.At(y, x))
			}
		}
		break
	}
}
