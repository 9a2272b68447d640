// Package fit fits line models to absorption depth data and reports the
// outcome as a Success or Failure Result.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-linefit/internal/lsq"
	"github.com/cwbudde/algo-linefit/profile"
)

var (
	// ErrNoConvergence marks every fit that did not produce usable
	// parameters: iteration limit, singular Jacobian, non-finite model
	// values or too few samples.
	ErrNoConvergence = errors.New("fit: fit did not converge")
	ErrInvalidConfig = errors.New("fit: invalid configuration")
)

// Solver selects the least-squares backend.
type Solver int

const (
	// SolverBounded is the projected Levenberg-Marquardt solver. It honours
	// Lower and Upper.
	SolverBounded Solver = iota
	// SolverLM is the unconstrained github.com/maorshutman/lm solver.
	// Configurations using it must not carry finite bounds.
	SolverLM
)

// String returns the solver name.
func (s Solver) String() string {
	switch s {
	case SolverBounded:
		return "bounded"
	case SolverLM:
		return "lm"
	default:
		return fmt.Sprintf("Solver(%d)", int(s))
	}
}

// ParseSolver parses a solver name as printed by String.
func ParseSolver(name string) (Solver, error) {
	switch name {
	case "", "bounded":
		return SolverBounded, nil
	case "lm":
		return SolverLM, nil
	}

	return 0, fmt.Errorf("%w: unknown solver %q", ErrInvalidConfig, name)
}

// Config describes one fit.
type Config struct {
	Model   profile.Model
	Initial []float64

	// Lower and Upper bound each parameter; nil leaves that side open.
	Lower, Upper []float64

	// Weights optionally scale each residual, typically 1/fluxErr.
	Weights []float64

	// MaxIterations caps the solver; zero selects 100*(params+1).
	MaxIterations int
	Solver        Solver
}

// Result is the outcome of one fit. A Result with a nil Err is a Success and
// carries the fitted parameters and their standard deviations.
type Result struct {
	Params     []float64
	StdDevs    []float64
	Covariance *mat.SymDense
	Cost       float64
	Iterations int
	Err        error
}

// Failure returns a failed Result.
func Failure(err error) Result {
	return Result{Err: err}
}

// OK reports whether the fit succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Reason returns the failure message, or "" for a Success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}

func (c Config) validate(x, y []float64) error {
	switch {
	case c.Model == nil:
		return fmt.Errorf("%w: nil model", ErrInvalidConfig)
	case len(x) != len(y):
		return fmt.Errorf("%w: %d x values for %d y values", ErrInvalidConfig, len(x), len(y))
	case len(c.Initial) != c.Model.NumParams():
		return fmt.Errorf("%w: %d initial values for %d parameters", ErrInvalidConfig, len(c.Initial), c.Model.NumParams())
	case c.Weights != nil && len(c.Weights) != len(y):
		return fmt.Errorf("%w: %d weights for %d samples", ErrInvalidConfig, len(c.Weights), len(y))
	}

	return nil
}

// Fit minimizes the squared residuals between cfg.Model evaluated at x and
// the observed y. Failures are returned as a Result, never as a panic.
func Fit(cfg Config, x, y []float64) Result {
	if err := cfg.validate(x, y); err != nil {
		return Failure(err)
	}

	residual := func(dst, p []float64) {
		floats.SubTo(dst, cfg.Model.Evaluate(x, p), y)

		if cfg.Weights != nil {
			vecmath.MulBlockInPlace(dst, cfg.Weights)
		}
	}

	problem := lsq.Problem{
		Residual: residual,
		M:        len(y),
		Initial:  cfg.Initial,
		Lower:    cfg.Lower,
		Upper:    cfg.Upper,
	}
	settings := lsq.Settings{MaxIterations: cfg.MaxIterations}

	var (
		res lsq.Result
		err error
	)

	switch cfg.Solver {
	case SolverBounded:
		res, err = lsq.Solve(problem, settings)
	case SolverLM:
		res, err = lsq.SolveUnbounded(problem, settings)
	default:
		return Failure(fmt.Errorf("%w: %v", ErrInvalidConfig, cfg.Solver))
	}

	if err != nil {
		return Failure(classify(err))
	}

	cov, err := lsq.Covariance(res.Jacobian, res.Cost)
	if err != nil {
		return Failure(classify(err))
	}

	std := lsq.StdDevs(cov)
	for i, v := range std {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Failure(fmt.Errorf("%w: non-finite deviation for %s", ErrNoConvergence, cfg.Model.ParamNames()[i]))
		}
	}

	return Result{
		Params:     res.X,
		StdDevs:    std,
		Covariance: cov,
		Cost:       res.Cost,
		Iterations: res.Iterations,
	}
}

func classify(err error) error {
	if errors.Is(err, lsq.ErrInvalidProblem) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return fmt.Errorf("%w: %w", ErrNoConvergence, err)
}

// Curve evaluates the fitted model at x. It returns nil for a failed Result.
func (r Result) Curve(m profile.Model, x []float64) []float64 {
	if !r.OK() {
		return nil
	}

	return m.Evaluate(x, r.Params)
}
