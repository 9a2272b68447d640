package profile

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-linefit/internal/testutil"
)

func TestFaddeevaAtOrigin(t *testing.T) {
	w := Faddeeva(0)
	if cmplx.Abs(w-1) > 1e-14 {
		t.Fatalf("w(0) = %v, want 1", w)
	}
}

func TestFaddeevaImaginaryAxis(t *testing.T) {
	// w(iy) = erfcx(y) for y >= 0.
	for _, y := range []float64{0.05, 0.3, 0.7071067811865476, 1, 2.5, 6, 15} {
		w := Faddeeva(complex(0, y))
		want := math.Exp(y*y) * math.Erfc(y)

		if math.Abs(real(w)-want) > 1e-9*want {
			t.Fatalf("Re w(%gi) = %.15g, want %.15g", y, real(w), want)
		}

		if math.Abs(imag(w)) > 1e-9 {
			t.Fatalf("Im w(%gi) = %g, want 0", y, imag(w))
		}
	}
}

func TestFaddeevaRealAxis(t *testing.T) {
	// Re w(x) = exp(-x^2) on the real axis.
	for _, x := range []float64{0.25, 1, 2, 3.5} {
		got := real(Faddeeva(complex(x, 0)))
		want := math.Exp(-x * x)

		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("Re w(%g) = %.15g, want %.15g", x, got, want)
		}
	}
}

func TestFaddeevaContinuedFractionMatchesRational(t *testing.T) {
	// Both branches must agree near the switch radius.
	z := complex(asymptoticRadius*0.6, asymptoticRadius*0.8)
	inner := Faddeeva(z * complex(0.999, 0))
	outer := faddeevaContinued(z * complex(0.999, 0))

	if cmplx.Abs(inner-outer) > 1e-9*cmplx.Abs(inner) {
		t.Fatalf("rational %v vs continued fraction %v", inner, outer)
	}
}

func TestFaddeevaLowerHalfPlane(t *testing.T) {
	z := complex(0.4, -0.3)
	got := Faddeeva(z)
	want := 2*cmplx.Exp(-z*z) - Faddeeva(-z)

	if cmplx.Abs(got-want) > 1e-12 {
		t.Fatalf("w(%v) = %v, want %v", z, got, want)
	}
}

func TestVoigtSpecialCases(t *testing.T) {
	tests := []struct {
		name         string
		x, sig, gam  float64
		want         float64
		tol          float64
	}{
		{"gaussian peak", 0, 1, 0, 1 / math.Sqrt(2*math.Pi), 1e-15},
		{"gaussian tail", 2, 0.5, 0, math.Exp(-8) / (0.5 * math.Sqrt(2*math.Pi)), 1e-15},
		{"lorentzian peak", 0, 0, 1, 1 / math.Pi, 1e-15},
		{"lorentzian offset", 1, 0, 2, 2 / (math.Pi * 5), 1e-15},
		{"delta away", 0.1, 0, 0, 0, 0},
		{"mixed peak", 0, 1, 1, math.Exp(0.5) * math.Erfc(1/math.Sqrt2) / math.Sqrt(2*math.Pi), 1e-10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Voigt(tc.x, tc.sig, tc.gam)
			if math.Abs(got-tc.want) > tc.tol {
				t.Fatalf("Voigt(%g, %g, %g) = %.15g, want %.15g", tc.x, tc.sig, tc.gam, got, tc.want)
			}
		})
	}

	if !math.IsInf(Voigt(0, 0, 0), 1) {
		t.Fatal("Voigt(0, 0, 0) should be +Inf")
	}

	if !math.IsNaN(Voigt(0, -1, 1)) || !math.IsNaN(Voigt(0, 1, -1)) {
		t.Fatal("negative widths should give NaN")
	}
}

func TestVoigtNormalized(t *testing.T) {
	// Trapezoidal integral over a wide range; the Lorentzian tail beyond
	// +-200 carries about 2*gamma/(200*pi) of the mass.
	const (
		sigma = 0.4
		gamma = 0.1
	)

	x := testutil.Grid(-200, 200, 400001)
	sum := 0.0

	for i := 1; i < len(x); i++ {
		sum += 0.5 * (Voigt(x[i-1], sigma, gamma) + Voigt(x[i], sigma, gamma)) * (x[i] - x[i-1])
	}

	tail := 2 * gamma / (200 * math.Pi)
	if math.Abs(sum+tail-1) > 1e-4 {
		t.Fatalf("integral = %v (+tail %v), want 1", sum, tail)
	}
}

func TestVoigtEven(t *testing.T) {
	for _, d := range []float64{0.01, 0.3, 1.7, 9, 40} {
		if Voigt(d, 0.3, 0.2) != Voigt(-d, 0.3, 0.2) {
			t.Fatalf("Voigt not even at %g", d)
		}
	}
}

func TestFWHMLimits(t *testing.T) {
	if got, want := FWHM(1, 0), 2*math.Sqrt(2*math.Ln2); math.Abs(got-want) > 1e-12 {
		t.Fatalf("gaussian FWHM = %v, want %v", got, want)
	}

	if got := FWHM(0, 1); math.Abs(got-2) > 1e-3 {
		t.Fatalf("lorentzian FWHM = %v, want 2", got)
	}
}
