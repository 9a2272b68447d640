package profile

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	// weidemanTerms is the number of rational terms in the Faddeeva
	// approximation. The coefficient transform has length 4*weidemanTerms.
	weidemanTerms = 64

	// Beyond this modulus the Laplace continued fraction is used.
	asymptoticRadius = 12.0
	continuedTerms   = 24
)

type weidemanTable struct {
	l    float64
	coef []float64 // coef[k] multiplies Z^k
}

var (
	weidemanOnce sync.Once
	weideman     weidemanTable
	weidemanErr  error
)

func loadWeideman() (weidemanTable, error) {
	weidemanOnce.Do(func() {
		weideman, weidemanErr = newWeidemanTable(weidemanTerms)
	})

	return weideman, weidemanErr
}

// newWeidemanTable computes the polynomial coefficients of Weideman's
// rational approximation of w(z) from a discrete Fourier transform of
// exp(-t^2)(L^2+t^2) sampled at t = L*tan(theta/2).
func newWeidemanTable(n int) (weidemanTable, error) {
	m := 2 * n
	size := 2 * m
	l := math.Sqrt(float64(n) / math.Sqrt2)

	// Samples in FFT order: index i holds k = i for i < m and k = i - size
	// otherwise. k = -m sits on the pole of tan and contributes zero.
	in := make([]complex128, size)

	for i := range in {
		k := i
		if i >= m {
			k = i - size
		}

		if k == -m {
			continue
		}

		t := l * math.Tan(float64(k)*math.Pi/float64(2*m))
		in[i] = complex(math.Exp(-t*t)*(l*l+t*t), 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return weidemanTable{}, fmt.Errorf("profile: faddeeva plan: %w", err)
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return weidemanTable{}, fmt.Errorf("profile: faddeeva transform: %w", err)
	}

	coef := make([]float64, n)
	sum := 0.0

	for k := range coef {
		coef[k] = real(out[k+1]) / float64(size)
		sum += coef[k]
	}

	// Pin w(0) = 1 exactly. This also removes any scaling convention of the
	// forward transform.
	if sum == 0 || math.IsNaN(sum) {
		return weidemanTable{}, fmt.Errorf("profile: degenerate faddeeva coefficients")
	}

	scale := (1 - 1/(math.SqrtPi*l)) * l * l / (2 * sum)
	for k := range coef {
		coef[k] *= scale
	}

	return weidemanTable{l: l, coef: coef}, nil
}

// Faddeeva evaluates the scaled complex complementary error function
// w(z) = exp(-z^2) erfc(-iz).
func Faddeeva(z complex128) complex128 {
	if cmplx.IsNaN(z) {
		return cmplx.NaN()
	}

	if imag(z) < 0 {
		// Reflection into the upper half-plane.
		return 2*cmplx.Exp(-z*z) - Faddeeva(-z)
	}

	if cmplx.Abs(z) >= asymptoticRadius {
		return faddeevaContinued(z)
	}

	tab, err := loadWeideman()
	if err != nil {
		return cmplx.NaN()
	}

	iz := complex(-imag(z), real(z))
	den := complex(tab.l, 0) - iz
	zz := (complex(tab.l, 0) + iz) / den

	var p complex128
	for k := len(tab.coef) - 1; k >= 0; k-- {
		p = p*zz + complex(tab.coef[k], 0)
	}

	return 2*p/(den*den) + complex(1/math.SqrtPi, 0)/den
}

// faddeevaContinued evaluates the Laplace continued fraction
// w(z) = (i/sqrt(pi)) / (z - (1/2)/(z - 1/(z - (3/2)/(z - ...)))).
func faddeevaContinued(z complex128) complex128 {
	r := z
	for k := continuedTerms; k >= 1; k-- {
		r = z - complex(float64(k)/2, 0)/r
	}

	return complex(0, 1/math.SqrtPi) / r
}
