package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-linefit/profile"
)

// BatchOptions tune the single-Voigt batch configuration.
type BatchOptions struct {
	// AllowNegativeWidths drops the sigma >= 0 and gamma >= 0 bounds. The
	// Voigt profile is undefined for negative widths, so such steps are
	// rejected by the solver instead of clamped.
	AllowNegativeWidths bool

	MaxIterations int
	Solver        Solver
}

// SingleVoigtBatch is the configuration applied to every spectrum of a batch
// run on normalized wavelengths: amplitude max(y), center 0, sigma and gamma
// 0.25.
func SingleVoigtBatch(y []float64, opts BatchOptions) Config {
	amp := 0.0
	if len(y) > 0 {
		amp = floats.Max(y)
	}

	cfg := Config{
		Model:         profile.SingleVoigt{},
		Initial:       []float64{amp, 0, 0.25, 0.25},
		MaxIterations: opts.MaxIterations,
		Solver:        opts.Solver,
	}

	if !opts.AllowNegativeWidths {
		inf := math.Inf(1)
		cfg.Lower = []float64{-inf, -inf, 0, 0}
	}

	return cfg
}

// DoubleVoigtInteractive is the configuration for a single-spectrum fit of
// two Voigt components sharing a center, in original wavelength units. The
// center starts at the deepest sample and may move by at most 1. The peak
// depth is split 2:1 between the amplitudes, the second amplitude is held in
// [depth/3, depth/2] and all widths are non-negative.
func DoubleVoigtInteractive(x, y []float64) Config {
	cfg := Config{Model: profile.DoubleVoigt{}}
	if len(x) == 0 || len(x) != len(y) {
		// Fit reports the length mismatch or missing samples.
		cfg.Initial = make([]float64, cfg.Model.NumParams())
		return cfg
	}

	idx := floats.MaxIdx(y)
	c0, depth := x[idx], y[idx]
	inf := math.Inf(1)

	cfg.Initial = []float64{c0, 2 * depth / 3, depth / 3, 3, 0, 3, 20}
	cfg.Lower = []float64{c0 - 1, 0, depth / 3, 0, 0, 0, 0}
	cfg.Upper = []float64{c0 + 1, inf, depth / 2, inf, inf, inf, inf}

	return cfg
}
