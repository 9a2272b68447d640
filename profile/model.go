package profile

import (
	"github.com/cwbudde/algo-vecmath"
)

// Model is a line model with a fixed parameter vector layout. Params passed
// to Eval and Evaluate must hold at least NumParams values.
type Model interface {
	Name() string
	NumParams() int
	ParamNames() []string
	Eval(x float64, params []float64) float64
	Evaluate(x, params []float64) []float64
}

// Parameter indices of SingleVoigt.
const (
	SingleAmplitude = iota
	SingleCenter
	SingleSigma
	SingleGamma
)

// Parameter indices of DoubleVoigt.
const (
	DoubleCenter = iota
	DoubleAmplitude1
	DoubleAmplitude2
	DoubleSigma1
	DoubleSigma2
	DoubleGamma1
	DoubleGamma2
)

// SingleVoigt is amplitude * Voigt(x - center, sigma, gamma) with parameters
// (amplitude, center, sigma, gamma).
type SingleVoigt struct{}

// Name returns the model identifier.
func (SingleVoigt) Name() string { return "voigt" }

// NumParams returns 4.
func (SingleVoigt) NumParams() int { return 4 }

// ParamNames returns the parameter names in vector order.
func (SingleVoigt) ParamNames() []string {
	return []string{"amplitude", "center", "sigma", "gamma"}
}

// Eval evaluates the model at x.
func (SingleVoigt) Eval(x float64, p []float64) float64 {
	return p[SingleAmplitude] * Voigt(x-p[SingleCenter], p[SingleSigma], p[SingleGamma])
}

// Evaluate evaluates the model at every x.
func (SingleVoigt) Evaluate(x, p []float64) []float64 {
	return voigtTerm(x, p[SingleAmplitude], p[SingleCenter], p[SingleSigma], p[SingleGamma])
}

// DoubleVoigt is the sum of two Voigt terms sharing one center, modelling a
// blended feature such as a core plus broad wings. Parameters are
// (center, amplitude1, amplitude2, sigma1, sigma2, gamma1, gamma2).
type DoubleVoigt struct{}

// Name returns the model identifier.
func (DoubleVoigt) Name() string { return "voigt2" }

// NumParams returns 7.
func (DoubleVoigt) NumParams() int { return 7 }

// ParamNames returns the parameter names in vector order.
func (DoubleVoigt) ParamNames() []string {
	return []string{"center", "amplitude1", "amplitude2", "sigma1", "sigma2", "gamma1", "gamma2"}
}

// Eval evaluates the model at x.
func (DoubleVoigt) Eval(x float64, p []float64) float64 {
	d := x - p[DoubleCenter]
	return p[DoubleAmplitude1]*Voigt(d, p[DoubleSigma1], p[DoubleGamma1]) +
		p[DoubleAmplitude2]*Voigt(d, p[DoubleSigma2], p[DoubleGamma2])
}

// Evaluate evaluates the model at every x.
func (m DoubleVoigt) Evaluate(x, p []float64) []float64 {
	first, second := m.Components(x, p)
	vecmath.AddBlockInPlace(first, second)

	return first
}

// Components evaluates the two Voigt terms separately.
func (DoubleVoigt) Components(x, p []float64) (first, second []float64) {
	c := p[DoubleCenter]
	first = voigtTerm(x, p[DoubleAmplitude1], c, p[DoubleSigma1], p[DoubleGamma1])
	second = voigtTerm(x, p[DoubleAmplitude2], c, p[DoubleSigma2], p[DoubleGamma2])

	return first, second
}

// SingleParams converts component i (0 or 1) of a DoubleVoigt parameter
// vector to SingleVoigt parameters.
func (DoubleVoigt) SingleParams(p []float64, i int) []float64 {
	if i == 0 {
		return []float64{p[DoubleAmplitude1], p[DoubleCenter], p[DoubleSigma1], p[DoubleGamma1]}
	}

	return []float64{p[DoubleAmplitude2], p[DoubleCenter], p[DoubleSigma2], p[DoubleGamma2]}
}

func voigtTerm(x []float64, amplitude, center, sigma, gamma float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = Voigt(v-center, sigma, gamma)
	}

	vecmath.ScaleBlock(out, out, amplitude)

	return out
}

// Lookup returns the model registered under name.
func Lookup(name string) (Model, bool) {
	switch name {
	case SingleVoigt{}.Name():
		return SingleVoigt{}, true
	case DoubleVoigt{}.Name():
		return DoubleVoigt{}, true
	}

	return nil, false
}
