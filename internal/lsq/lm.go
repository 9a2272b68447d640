package lsq

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SolveUnbounded runs the unconstrained Levenberg-Marquardt implementation
// of github.com/maorshutman/lm. Finite bounds are rejected. The Jacobian in
// the result is recomputed here so Covariance works the same for both
// solvers.
func SolveUnbounded(p Problem, settings Settings) (Result, error) {
	s, err := newSolver(p)
	if err != nil {
		return Result{}, err
	}

	for i := range s.n {
		if !math.IsInf(s.lower[i], -1) || !math.IsInf(s.upper[i], 1) {
			return Result{}, fmt.Errorf("%w: parameter %d is bounded", ErrInvalidProblem, i)
		}
	}

	cfg := normalizeSettings(settings, s.n)

	f := func(dst, x []float64) {
		s.evals++
		p.Residual(dst, x)
	}

	initial := make([]float64, s.n)
	copy(initial, p.Initial)

	nj := lm.NumJac{Func: f}
	problem := lm.LMProblem{
		Dim:        s.n,
		Size:       p.M,
		Func:       f,
		Jac:        nj.Jac,
		InitParams: initial,
		Tau:        cfg.Tau,
		Eps1:       cfg.GTol,
		Eps2:       cfg.XTol,
	}

	res, err := lm.LM(problem, &lm.Settings{Iterations: cfg.MaxIterations, ObjectiveTol: 1e-16})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMaxIterations, err)
	}

	x := make([]float64, s.n)
	copy(x, res.X)

	r := make([]float64, p.M)
	if !s.residual(r, x) {
		return Result{}, ErrNonFinite
	}

	jac := mat.NewDense(p.M, s.n, nil)
	if !s.jacobian(jac, x, r) {
		return Result{}, ErrNonFinite
	}

	return Result{
		X:           x,
		Cost:        0.5 * floats.Dot(r, r),
		Residuals:   r,
		Jacobian:    jac,
		Evaluations: s.evals,
	}, nil
}
