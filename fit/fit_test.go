package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-linefit/internal/testutil"
	"github.com/cwbudde/algo-linefit/profile"
)

func syntheticSingle(params []float64, n int, noise float64, seed int64) (x, y []float64) {
	x = testutil.Grid(-1, 1, n)
	y = profile.SingleVoigt{}.Evaluate(x, params)
	eps := testutil.GaussianNoise(seed, noise, n)

	for i := range y {
		y[i] += eps[i]
	}

	return x, y
}

func TestFitRecoversSingleVoigt(t *testing.T) {
	truth := []float64{1.0, 0.0, 0.3, 0.2}
	x, y := syntheticSingle(truth, 401, 0.002, 5)

	res := Fit(SingleVoigtBatch(y, BatchOptions{}), x, y)
	if !res.OK() {
		t.Fatalf("fit failed: %v", res.Err)
	}

	testutil.RequireRelative(t, "amplitude", res.Params[profile.SingleAmplitude], truth[0], 0.1)
	testutil.RequireRelative(t, "sigma", res.Params[profile.SingleSigma], truth[2], 0.1)
	testutil.RequireRelative(t, "gamma", res.Params[profile.SingleGamma], truth[3], 0.1)

	if c := res.Params[profile.SingleCenter]; math.Abs(c) > 0.01 {
		t.Fatalf("center = %v, want ~0", c)
	}

	if len(res.StdDevs) != 4 {
		t.Fatalf("len(StdDevs) = %d, want 4", len(res.StdDevs))
	}

	for i, s := range res.StdDevs {
		if !(s > 0) || math.IsInf(s, 0) {
			t.Fatalf("StdDevs[%d] = %v, want positive finite", i, s)
		}
	}

	if res.Reason() != "" {
		t.Fatalf("Reason() = %q for a success", res.Reason())
	}
}

func TestFitNoiselessIsTight(t *testing.T) {
	truth := []float64{0.7, 0.15, 0.2, 0.1}
	x, y := syntheticSingle(truth, 201, 0, 1)

	res := Fit(SingleVoigtBatch(y, BatchOptions{}), x, y)
	if !res.OK() {
		t.Fatalf("fit failed: %v", res.Err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Params, truth, 1e-4)
	testutil.RequireSliceNearlyEqual(t, res.Curve(profile.SingleVoigt{}, x), y, 1e-5)
}

func TestFitKeepsWidthsNonNegative(t *testing.T) {
	truth := []float64{0.5, 0, 0.25, 0}
	x, y := syntheticSingle(truth, 201, 0.001, 9)

	res := Fit(SingleVoigtBatch(y, BatchOptions{}), x, y)
	if !res.OK() {
		t.Fatalf("fit failed: %v", res.Err)
	}

	if res.Params[profile.SingleSigma] < 0 || res.Params[profile.SingleGamma] < 0 {
		t.Fatalf("negative width in %v", res.Params)
	}
}

func TestFitPureNoiseYieldsOneOutcome(t *testing.T) {
	x := testutil.Grid(-1, 1, 120)
	y := testutil.DeterministicNoise(17, 0.01, len(x))

	res := Fit(SingleVoigtBatch(y, BatchOptions{}), x, y)
	if res.OK() {
		if len(res.Params) != 4 || len(res.StdDevs) != 4 {
			t.Fatalf("success without parameters: %+v", res)
		}

		return
	}

	if !errors.Is(res.Err, ErrNoConvergence) {
		t.Fatalf("failure = %v, want ErrNoConvergence", res.Err)
	}
}

func TestFitIterationCapFails(t *testing.T) {
	truth := []float64{1.0, 0.2, 0.3, 0.2}
	x, y := syntheticSingle(truth, 101, 0.001, 2)

	cfg := SingleVoigtBatch(y, BatchOptions{MaxIterations: 1})

	res := Fit(cfg, x, y)
	if res.OK() {
		t.Fatal("one iteration should not converge")
	}

	if !errors.Is(res.Err, ErrNoConvergence) {
		t.Fatalf("error = %v, want ErrNoConvergence", res.Err)
	}

	if res.Reason() == "" || res.Params != nil || res.Curve(profile.SingleVoigt{}, x) != nil {
		t.Fatalf("failure carries data: %+v", res)
	}
}

func TestFitTooFewSamples(t *testing.T) {
	x := []float64{-1, 0, 1}
	y := []float64{0, 1, 0}

	res := Fit(SingleVoigtBatch(y, BatchOptions{}), x, y)
	if !errors.Is(res.Err, ErrNoConvergence) {
		t.Fatalf("error = %v, want ErrNoConvergence", res.Err)
	}
}

func TestFitInvalidConfig(t *testing.T) {
	x := testutil.Grid(-1, 1, 10)
	y := make([]float64, 10)

	tests := []struct {
		name string
		cfg  Config
		x, y []float64
	}{
		{"nil model", Config{Initial: []float64{1}}, x, y},
		{"length mismatch", SingleVoigtBatch(y, BatchOptions{}), x[:5], y},
		{"initial size", Config{Model: profile.SingleVoigt{}, Initial: []float64{1}}, x, y},
		{"weights size", Config{Model: profile.SingleVoigt{}, Initial: []float64{1, 0, 1, 1}, Weights: []float64{1}}, x, y},
		{"unknown solver", Config{Model: profile.SingleVoigt{}, Initial: []float64{1, 0, 1, 1}, Solver: Solver(9)}, x, y},
		{"lm with bounds", SingleVoigtBatch(y, BatchOptions{Solver: SolverLM}), x, y},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Fit(tc.cfg, tc.x, tc.y)
			if !errors.Is(res.Err, ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", res.Err)
			}
		})
	}
}

func TestFitWeighted(t *testing.T) {
	truth := []float64{0.8, -0.1, 0.2, 0.15}
	x, y := syntheticSingle(truth, 201, 0, 1)

	cfg := SingleVoigtBatch(y, BatchOptions{})
	cfg.Weights = testutil.Ones(len(y))

	for i := range cfg.Weights {
		cfg.Weights[i] = 1 / 0.01
	}

	res := Fit(cfg, x, y)
	if !res.OK() {
		t.Fatalf("fit failed: %v", res.Err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Params, truth, 1e-4)
}

func TestSolverNames(t *testing.T) {
	for _, s := range []Solver{SolverBounded, SolverLM} {
		got, err := ParseSolver(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseSolver(%q) = %v, %v", s.String(), got, err)
		}
	}

	if _, err := ParseSolver("simplex"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("ParseSolver(simplex) error = %v", err)
	}
}
