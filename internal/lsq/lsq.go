// Package lsq solves small bounded nonlinear least-squares problems with a
// projected Levenberg-Marquardt iteration and estimates the parameter
// covariance at the solution.
package lsq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrMaxIterations   = errors.New("lsq: iteration limit reached")
	ErrSingular        = errors.New("lsq: singular normal matrix")
	ErrNonFinite       = errors.New("lsq: non-finite residuals")
	ErrUnderdetermined = errors.New("lsq: fewer residuals than parameters")
	ErrInvalidProblem  = errors.New("lsq: invalid problem")
)

const (
	defaultTol = 1.49012e-8
	defaultTau = 1e-3

	// Largest condition number of JᵀJ accepted for a covariance estimate.
	maxCondition = 1e15
)

// ResidualFunc writes the residuals for parameters x into dst.
type ResidualFunc func(dst, x []float64)

// Problem describes a least-squares problem with M residuals.
type Problem struct {
	Residual ResidualFunc
	M        int
	Initial  []float64

	// Lower and Upper are optional box constraints. A nil slice leaves that
	// side unbounded; infinite entries are allowed.
	Lower, Upper []float64
}

// Settings control the iteration. Zero values select defaults.
type Settings struct {
	// MaxIterations caps the outer iterations. Default 100*(n+1).
	MaxIterations int

	// FTol is the relative cost reduction, XTol the relative step size and
	// GTol the projected gradient norm below which the fit has converged.
	FTol, XTol, GTol float64

	// Tau scales the initial damping against the largest diagonal entry of JᵀJ.
	Tau float64
}

// Result is a converged solution.
type Result struct {
	X           []float64
	Cost        float64 // 0.5 * sum of squared residuals
	Residuals   []float64
	Jacobian    *mat.Dense
	Iterations  int
	Evaluations int
}

func normalizeSettings(s Settings, n int) Settings {
	if s.MaxIterations <= 0 {
		s.MaxIterations = 100 * (n + 1)
	}

	if s.FTol <= 0 {
		s.FTol = defaultTol
	}

	if s.XTol <= 0 {
		s.XTol = defaultTol
	}

	if s.GTol <= 0 {
		s.GTol = 1e-12
	}

	if s.Tau <= 0 {
		s.Tau = defaultTau
	}

	return s
}

type solver struct {
	p            Problem
	n            int
	lower, upper []float64
	evals        int
}

func newSolver(p Problem) (*solver, error) {
	n := len(p.Initial)

	switch {
	case p.Residual == nil:
		return nil, fmt.Errorf("%w: nil residual function", ErrInvalidProblem)
	case n == 0:
		return nil, fmt.Errorf("%w: no parameters", ErrInvalidProblem)
	case p.M < n:
		return nil, fmt.Errorf("%w: %d residuals for %d parameters", ErrUnderdetermined, p.M, n)
	case p.Lower != nil && len(p.Lower) != n, p.Upper != nil && len(p.Upper) != n:
		return nil, fmt.Errorf("%w: bounds length does not match %d parameters", ErrInvalidProblem, n)
	}

	s := &solver{p: p, n: n, lower: make([]float64, n), upper: make([]float64, n)}

	for i := range n {
		s.lower[i], s.upper[i] = math.Inf(-1), math.Inf(1)
		if p.Lower != nil {
			s.lower[i] = p.Lower[i]
		}

		if p.Upper != nil {
			s.upper[i] = p.Upper[i]
		}

		if math.IsNaN(s.lower[i]) || math.IsNaN(s.upper[i]) || s.lower[i] > s.upper[i] {
			return nil, fmt.Errorf("%w: bounds of parameter %d are [%v, %v]", ErrInvalidProblem, i, s.lower[i], s.upper[i])
		}
	}

	return s, nil
}

func (s *solver) clamp(x []float64) {
	for i := range x {
		x[i] = math.Min(math.Max(x[i], s.lower[i]), s.upper[i])
	}
}

func (s *solver) residual(dst, x []float64) bool {
	s.evals++
	s.p.Residual(dst, x)

	for _, v := range dst {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// jacobian fills jac with forward differences of the residuals around x,
// stepping backwards where a forward step would leave the box.
func (s *solver) jacobian(jac *mat.Dense, x, r []float64) bool {
	h0 := math.Sqrt(2.220446049250313e-16)
	xh := make([]float64, s.n)
	rh := make([]float64, s.p.M)
	copy(xh, x)

	for j := range s.n {
		h := h0 * math.Max(1, math.Abs(x[j]))
		if x[j]+h > s.upper[j] {
			h = -h
		}

		xh[j] = x[j] + h
		ok := s.residual(rh, xh)
		xh[j] = x[j]

		if !ok {
			return false
		}

		for i := range rh {
			jac.Set(i, j, (rh[i]-r[i])/h)
		}
	}

	return true
}

// Solve minimizes 0.5*||r(x)||^2 subject to Lower <= x <= Upper starting
// from the clamped initial point.
func Solve(p Problem, settings Settings) (Result, error) {
	s, err := newSolver(p)
	if err != nil {
		return Result{}, err
	}

	cfg := normalizeSettings(settings, s.n)
	m, n := p.M, s.n

	x := make([]float64, n)
	copy(x, p.Initial)
	s.clamp(x)

	r := make([]float64, m)
	if !s.residual(r, x) {
		return Result{}, ErrNonFinite
	}

	cost := 0.5 * floats.Dot(r, r)

	jac := mat.NewDense(m, n, nil)
	if !s.jacobian(jac, x, r) {
		return Result{}, ErrNonFinite
	}

	var (
		a    mat.SymDense
		g    mat.VecDense
		chol mat.Cholesky
		mu   = -1.0
		nu   = 2.0
		xNew = make([]float64, n)
		rNew = make([]float64, m)
		step = make([]float64, n)
		free = make([]int, 0, n)
	)

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		a.SymOuterK(1, jac.T())
		g.MulVec(jac.T(), mat.NewVecDense(m, r))

		if mu < 0 {
			maxDiag := 0.0
			for i := range n {
				maxDiag = math.Max(maxDiag, a.At(i, i))
			}

			mu = cfg.Tau * math.Max(maxDiag, 1e-12)
		}

		// Parameters held on a bound by the gradient are removed from the
		// step; the remaining ones form the free set.
		free = free[:0]
		gradNorm := 0.0

		for i := range n {
			gi := g.AtVec(i)
			if (x[i] <= s.lower[i] && gi > 0) || (x[i] >= s.upper[i] && gi < 0) {
				continue
			}

			free = append(free, i)
			gradNorm = math.Max(gradNorm, math.Abs(gi))
		}

		if len(free) == 0 || gradNorm <= cfg.GTol {
			return s.result(x, r, cost, jac, iter), nil
		}

		k := len(free)
		damped := mat.NewSymDense(k, nil)
		rhs := mat.NewVecDense(k, nil)

		for ii, i := range free {
			for jj := ii; jj < k; jj++ {
				damped.SetSym(ii, jj, a.At(i, free[jj]))
			}

			damped.SetSym(ii, ii, a.At(i, i)+mu)
			rhs.SetVec(ii, -g.AtVec(i))
		}

		if !chol.Factorize(damped) {
			mu *= nu
			nu *= 2

			continue
		}

		delta := mat.NewVecDense(k, nil)
		if err := chol.SolveVecTo(delta, rhs); err != nil {
			mu *= nu
			nu *= 2

			continue
		}

		copy(xNew, x)
		for ii, i := range free {
			xNew[i] += delta.AtVec(ii)
		}

		s.clamp(xNew)
		floats.SubTo(step, xNew, x)

		if floats.Norm(step, 2) <= cfg.XTol*(floats.Norm(x, 2)+cfg.XTol) {
			return s.result(x, r, cost, jac, iter), nil
		}

		rho := -1.0
		costNew := math.Inf(1)

		if s.residual(rNew, xNew) {
			costNew = 0.5 * floats.Dot(rNew, rNew)

			// Predicted reduction of the local quadratic model for the
			// actual (clamped) step.
			sv := mat.NewVecDense(n, step)
			pred := -mat.Dot(&g, sv) - 0.5*mat.Inner(sv, &a, sv)

			if pred > 0 {
				rho = (cost - costNew) / pred
			}
		}

		if rho <= 0 || costNew >= cost {
			mu *= nu
			nu *= 2

			if math.IsInf(mu, 0) || math.IsNaN(mu) {
				break
			}

			continue
		}

		reduction := cost - costNew

		copy(x, xNew)
		copy(r, rNew)
		cost = costNew

		if !s.jacobian(jac, x, r) {
			return Result{}, ErrNonFinite
		}

		mu *= math.Max(1.0/3, 1-math.Pow(2*rho-1, 3))
		nu = 2

		if reduction <= cfg.FTol*(cost+reduction) {
			return s.result(x, r, cost, jac, iter), nil
		}
	}

	return Result{}, fmt.Errorf("%w after %d evaluations", ErrMaxIterations, s.evals)
}

func (s *solver) result(x, r []float64, cost float64, jac *mat.Dense, iter int) Result {
	xs := make([]float64, len(x))
	copy(xs, x)

	rs := make([]float64, len(r))
	copy(rs, r)

	return Result{
		X:           xs,
		Cost:        cost,
		Residuals:   rs,
		Jacobian:    mat.DenseCopyOf(jac),
		Iterations:  iter,
		Evaluations: s.evals,
	}
}

// Covariance estimates the parameter covariance inv(JᵀJ) * RSS/(m-n) at a
// solution with the given Jacobian and cost. Residual weights are treated as
// relative, so the estimate is rescaled by the observed residual variance.
func Covariance(jac *mat.Dense, cost float64) (*mat.SymDense, error) {
	m, n := jac.Dims()
	if m <= n {
		return nil, fmt.Errorf("%w: %d residuals for %d parameters", ErrUnderdetermined, m, n)
	}

	var a mat.SymDense
	a.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if !chol.Factorize(&a) {
		return nil, ErrSingular
	}

	if c := chol.Cond(); c > maxCondition || math.IsNaN(c) {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingular, c)
	}

	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	cov.ScaleSym(2*cost/float64(m-n), &cov)

	return &cov, nil
}

// StdDevs returns the square roots of the covariance diagonal.
func StdDevs(cov mat.Symmetric) []float64 {
	n := cov.SymmetricDim()
	out := make([]float64, n)

	for i := range n {
		out[i] = math.Sqrt(cov.At(i, i))
	}

	return out
}
