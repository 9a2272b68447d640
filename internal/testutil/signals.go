// Package testutil provides deterministic spectra and comparison helpers
// shared by package tests.
package testutil

import (
	"math/rand"
)

// DeterministicNoise generates uniform noise in [-amplitude, amplitude) with a
// fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// GaussianNoise generates zero-mean normal noise with standard deviation
// sigma and a fixed seed.
func GaussianNoise(seed int64, sigma float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// Grid returns n evenly spaced values from lo to hi inclusive.
func Grid(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// Absorption builds flux and flux error columns for an absorption line with
// the given depth profile: flux = 1 - depth(wavelength) + noise. The flux
// error column is constant at noiseSigma (or 1e-3 when noiseSigma is zero).
func Absorption(wavelengths []float64, depth func(float64) float64, noiseSigma float64, seed int64) (flux, fluxErr []float64) {
	noise := GaussianNoise(seed, noiseSigma, len(wavelengths))
	flux = make([]float64, len(wavelengths))
	fluxErr = make([]float64, len(wavelengths))
	errVal := noiseSigma
	if errVal == 0 {
		errVal = 1e-3
	}
	for i, w := range wavelengths {
		flux[i] = 1 - depth(w) + noise[i]
		fluxErr[i] = errVal
	}
	return flux, fluxErr
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
