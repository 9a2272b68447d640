// Package profile implements spectral line shapes and the line models fitted
// to absorption spectra.
package profile

import "math"

var sqrt2Pi = math.Sqrt(2 * math.Pi)

// Voigt returns the normalized Voigt profile at offset x: the convolution of
// a zero-mean Gaussian with standard deviation sigma and a zero-centered
// Lorentzian with half-width gamma.
//
// sigma == 0 gives a pure Lorentzian and gamma == 0 a pure Gaussian. With both
// zero the profile degenerates to a delta: +Inf at x == 0 and 0 elsewhere.
// Negative widths give NaN.
func Voigt(x, sigma, gamma float64) float64 {
	if math.IsNaN(x) || math.IsNaN(sigma) || math.IsNaN(gamma) || sigma < 0 || gamma < 0 {
		return math.NaN()
	}

	x = math.Abs(x)

	switch {
	case sigma == 0 && gamma == 0:
		if x == 0 {
			return math.Inf(1)
		}

		return 0
	case sigma == 0:
		return gamma / (math.Pi * (x*x + gamma*gamma))
	case gamma == 0:
		u := x / sigma
		return math.Exp(-0.5*u*u) / (sigma * sqrt2Pi)
	}

	s := sigma * math.Sqrt2
	w := Faddeeva(complex(x/s, gamma/s))

	return real(w) / (sigma * sqrt2Pi)
}

// FWHM approximates the full width at half maximum of a Voigt profile
// (Olivero and Longbothum, accurate to about 0.02%).
func FWHM(sigma, gamma float64) float64 {
	fg := 2 * sigma * math.Sqrt(2*math.Ln2)
	fl := 2 * gamma

	return 0.5346*fl + math.Sqrt(0.2166*fl*fl+fg*fg)
}
