package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-linefit/internal/testutil"
)

func makeSpectrum(wl, flux []float64) Spectrum {
	s := make(Spectrum, len(wl))
	for i := range wl {
		s[i] = Sample{Wavelength: wl[i], Flux: flux[i], FluxErr: 0.01}
	}

	return s
}

// lineSpectrum has a single Lorentzian dip at center on a 0.5-spaced grid.
func lineSpectrum(lo, hi, center float64) Spectrum {
	n := int((hi-lo)/0.5) + 1
	wl := testutil.Grid(lo, hi, n)
	flux, _ := testutil.Absorption(wl, func(w float64) float64 {
		d := w - center
		return 0.6 / (1 + d*d)
	}, 0, 1)

	return makeSpectrum(wl, flux)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Spectrum
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"ok", makeSpectrum([]float64{1, 2, 3}, []float64{1, 0.5, 1}), nil},
		{"equal wavelengths", makeSpectrum([]float64{1, 1}, []float64{1, 1}), ErrNotIncreasing},
		{"decreasing", makeSpectrum([]float64{2, 1}, []float64{1, 1}), ErrNotIncreasing},
		{"nan flux", makeSpectrum([]float64{1, 2}, []float64{math.NaN(), 1}), ErrNonFinite},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDepth(t *testing.T) {
	s := makeSpectrum([]float64{1, 2, 3}, []float64{1, 0.25, 0.9})
	testutil.RequireSliceNearlyEqual(t, s.Depth(), []float64{0, 0.75, 0.1}, 1e-15)
}

func TestMinFluxIndexFirstOnTie(t *testing.T) {
	s := makeSpectrum([]float64{1, 2, 3, 4}, []float64{0.9, 0.2, 0.5, 0.2})
	if got := MinFluxIndex(s); got != 1 {
		t.Fatalf("MinFluxIndex = %d, want 1", got)
	}

	if got := MinFluxIndex(nil); got != -1 {
		t.Fatalf("MinFluxIndex(nil) = %d, want -1", got)
	}
}

func TestWindowSubsetContainsMinimum(t *testing.T) {
	for _, center := range []float64{0, 3, 50, 97, 100} {
		s := lineSpectrum(0, 100, center)
		w := Window(s, WindowConfig{})

		if len(w) == 0 {
			t.Fatalf("center %g: empty window", center)
		}

		minIdx := MinFluxIndex(s)
		found := false

		for _, p := range w {
			if p.Wavelength < s[0].Wavelength || p.Wavelength > s[len(s)-1].Wavelength {
				t.Fatalf("center %g: wavelength %g outside input range", center, p.Wavelength)
			}

			if math.Abs(p.Wavelength-s[minIdx].Wavelength) > DefaultRadius {
				t.Fatalf("center %g: wavelength %g outside radius", center, p.Wavelength)
			}

			if p == s[minIdx] {
				found = true
			}
		}

		if !found {
			t.Fatalf("center %g: window misses the minimum-flux sample", center)
		}
	}
}

func TestWindowInclusiveBounds(t *testing.T) {
	s := lineSpectrum(0, 100, 50)
	w := Window(s, WindowConfig{Radius: 10})

	// Grid step 0.5 puts samples exactly on 40 and 60.
	if w[0].Wavelength != 40 || w[len(w)-1].Wavelength != 60 {
		t.Fatalf("window = [%g, %g], want [40, 60]", w[0].Wavelength, w[len(w)-1].Wavelength)
	}

	if len(w) != 41 {
		t.Fatalf("len = %d, want 41", len(w))
	}
}

func TestWindowAsymmetricAtEdge(t *testing.T) {
	s := lineSpectrum(0, 100, 2)
	w := Window(s, WindowConfig{Radius: 5})

	if w[0].Wavelength != 0 || w[len(w)-1].Wavelength != 7 {
		t.Fatalf("window = [%g, %g], want [0, 7]", w[0].Wavelength, w[len(w)-1].Wavelength)
	}
}

func TestWindowSinglePoint(t *testing.T) {
	s := makeSpectrum([]float64{0, 100, 200}, []float64{1, 0.1, 1})
	w := Window(s, WindowConfig{})

	if len(w) != 1 || w[0].Wavelength != 100 {
		t.Fatalf("window = %v, want the single minimum sample", w)
	}
}

func TestWindowDoesNotAlias(t *testing.T) {
	s := lineSpectrum(0, 20, 10)
	w := Window(s, WindowConfig{})
	w[0].Flux = -42

	if s[0].Flux == -42 {
		t.Fatal("window shares storage with the input spectrum")
	}
}

func TestWindowEmpty(t *testing.T) {
	if w := Window(nil, WindowConfig{}); w != nil {
		t.Fatalf("Window(nil) = %v, want nil", w)
	}
}

func TestWindowConstantWavelength(t *testing.T) {
	s := makeSpectrum([]float64{5, 5, 5}, []float64{1, 0.4, 0.9})
	w := Window(s, WindowConfig{})

	if len(w) != 3 {
		t.Fatalf("len = %d, want all 3 samples", len(w))
	}

	if _, err := Normalize(w.Wavelengths()); !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("Normalize error = %v, want ErrDegenerateRange", err)
	}
}
