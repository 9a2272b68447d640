// Package spectrum holds absorption spectra and the coordinate preparation
// applied before a line fit: selecting the window around the deepest
// absorption feature and normalizing its wavelengths.
package spectrum

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmpty           = errors.New("spectrum: no samples")
	ErrNotIncreasing   = errors.New("spectrum: wavelength must be strictly increasing")
	ErrNonFinite       = errors.New("spectrum: non-finite sample")
	ErrDegenerateRange = errors.New("spectrum: degenerate wavelength range")
)

// Sample is one (wavelength, flux, flux error) triple.
type Sample struct {
	Wavelength float64
	Flux       float64
	FluxErr    float64
}

// Spectrum is an ordered sequence of samples with strictly increasing
// wavelength. Functions in this package never modify a Spectrum in place.
type Spectrum []Sample

// Validate reports whether s is a well-formed spectrum: non-empty, finite
// and with strictly increasing wavelength.
func (s Spectrum) Validate() error {
	if err := s.ValidateSamples(); err != nil {
		return err
	}

	for i := 1; i < len(s); i++ {
		if s[i].Wavelength <= s[i-1].Wavelength {
			return fmt.Errorf("%w at index %d", ErrNotIncreasing, i)
		}
	}

	return nil
}

// ValidateSamples checks that s is non-empty and that every wavelength and
// flux is finite. It does not check ordering.
func (s Spectrum) ValidateSamples() error {
	if len(s) == 0 {
		return ErrEmpty
	}

	for i, p := range s {
		if !isFinite(p.Wavelength) || !isFinite(p.Flux) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}

	return nil
}

// Wavelengths returns a copy of the wavelength column.
func (s Spectrum) Wavelengths() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Wavelength
	}

	return out
}

// Flux returns a copy of the flux column.
func (s Spectrum) Flux() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Flux
	}

	return out
}

// FluxErr returns a copy of the flux error column.
func (s Spectrum) FluxErr() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.FluxErr
	}

	return out
}

// Depth returns the absorption depth 1 - flux for every sample. This is the
// quantity the line profiles are fitted against.
func (s Spectrum) Depth() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = 1 - p.Flux
	}

	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
