// Package batch runs the line-fitting pipeline over a corpus of spectra:
// window selection, coordinate normalization and a Voigt fit per spectrum.
// Per-spectrum failures are recorded in the Summary and never abort a run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-linefit/fit"
	"github.com/cwbudde/algo-linefit/profile"
	"github.com/cwbudde/algo-linefit/spectrum"
)

var (
	ErrNilSource    = errors.New("batch: nil source")
	ErrFluxErr      = errors.New("batch: non-positive flux error in weighted fit")
	ErrLoad         = errors.New("batch: spectrum could not be loaded")
	ErrSkippedInput = errors.New("batch: invalid spectrum")
)

// Source enumerates and loads the spectra of a corpus.
type Source interface {
	IDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (spectrum.Spectrum, error)
}

// Observer receives every outcome of a run together with the time spent on it.
type Observer interface {
	Observe(o Outcome, elapsed time.Duration)
}

// Outcome is the result of one spectrum together with the arrays needed to
// draw a diagnostic plot. X is normalized in ModeSingle and in wavelength
// units in ModeDouble.
type Outcome struct {
	ID     string
	Model  profile.Model
	Result fit.Result

	X, Y, YErr []float64
	Fitted     []float64

	// Components holds the individual Voigt terms of a successful
	// ModeDouble fit.
	Components [][]float64

	// Norm is the coordinate mapping of ModeSingle, nil otherwise.
	Norm *spectrum.Normalized
}

// Runner fits spectra with one named configuration.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards log output.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runner{cfg: normalizeConfig(cfg), logger: logger}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// FitSpectrum runs the pipeline on one spectrum. Every error is reported as a
// failed Result in the returned Outcome.
func (r *Runner) FitSpectrum(id string, s spectrum.Spectrum) Outcome {
	model := r.cfg.Mode.Model()
	out := Outcome{ID: id, Model: model}

	if err := s.ValidateSamples(); err != nil {
		out.Result = fit.Failure(fmt.Errorf("%w: %w", ErrSkippedInput, err))
		return out
	}

	win := spectrum.Window(s, r.cfg.Window)
	out.X = win.Wavelengths()
	out.Y = win.Depth()
	out.YErr = win.FluxErr()

	var cfg fit.Config

	switch r.cfg.Mode {
	case ModeDouble:
		cfg = fit.DoubleVoigtInteractive(out.X, out.Y)
		cfg.MaxIterations = r.cfg.Fit.MaxIterations
	default:
		norm, err := spectrum.NormalizeRange(out.X, r.cfg.NormLo, r.cfg.NormHi)
		if err != nil {
			out.Result = fit.Failure(err)
			return out
		}

		out.X = norm.X
		out.Norm = &norm
		cfg = fit.SingleVoigtBatch(out.Y, r.cfg.Fit)
	}

	if r.cfg.Weighted {
		w, err := weights(out.YErr)
		if err != nil {
			out.Result = fit.Failure(err)
			return out
		}

		cfg.Weights = w
	}

	out.Result = fit.Fit(cfg, out.X, out.Y)
	if !out.Result.OK() {
		return out
	}

	out.Fitted = out.Result.Curve(model, out.X)

	if dv, ok := model.(profile.DoubleVoigt); ok {
		first, second := dv.Components(out.X, out.Result.Params)
		out.Components = [][]float64{first, second}
	}

	return out
}

func weights(fluxErr []float64) ([]float64, error) {
	w := make([]float64, len(fluxErr))

	for i, e := range fluxErr {
		if !(e > 0) {
			return nil, fmt.Errorf("%w at sample %d", ErrFluxErr, i)
		}

		w[i] = 1 / e
	}

	return w, nil
}

type job struct {
	idx int
	id  string
}

type result struct {
	idx     int
	outcome Outcome
	elapsed time.Duration
}

// Run fits every spectrum of src. It fails only when the corpus cannot be
// enumerated or ctx is cancelled; in the latter case the partial summary is
// returned with the context error.
func (r *Runner) Run(ctx context.Context, src Source) (*Summary, error) {
	if src == nil {
		return nil, ErrNilSource
	}

	ids, err := src.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: list corpus: %w", err)
	}

	ids = r.dedupe(ids)
	summary := newSummary(r.cfg.Mode.Model().ParamNames())

	r.logger.Info("batch started", "spectra", len(ids), "mode", r.cfg.Mode.String(), "workers", r.cfg.Workers)

	inCh := make(chan job, r.cfg.Workers*2)
	outCh := make(chan result, r.cfg.Workers*2)

	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()

		for j := range inCh {
			start := time.Now()
			o := r.process(ctx, src, j.id)
			outCh <- result{idx: j.idx, outcome: o, elapsed: time.Since(start)}
		}
	}

	wg.Add(r.cfg.Workers)

	for range r.cfg.Workers {
		go worker()
	}

	go func() {
		defer close(inCh)

		for i, id := range ids {
			select {
			case <-ctx.Done():
				return
			case inCh <- job{idx: i, id: id}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// Outcomes arrive in completion order; they are released to the
	// summary in corpus order.
	pending := make(map[int]result)
	next := 0

	for res := range outCh {
		pending[res.idx] = res

		for {
			ready, ok := pending[next]
			if !ok {
				break
			}

			delete(pending, next)
			r.collect(summary, ready)
			next++
		}
	}

	summary.finish(r.cfg.Uncertainty)

	r.logger.Info("batch finished",
		"spectra", summary.Total(),
		"failed", summary.FailureCount())

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	return summary, nil
}

func (r *Runner) process(ctx context.Context, src Source, id string) Outcome {
	s, err := src.Load(ctx, id)
	if err != nil {
		return Outcome{
			ID:     id,
			Model:  r.cfg.Mode.Model(),
			Result: fit.Failure(fmt.Errorf("%w: %w", ErrLoad, err)),
		}
	}

	return r.FitSpectrum(id, s)
}

func (r *Runner) collect(summary *Summary, res result) {
	o := res.outcome
	summary.add(o.ID, o.Result)

	if o.Result.OK() {
		r.logger.Debug("fit converged",
			"id", o.ID,
			"iterations", o.Result.Iterations,
			"elapsed", res.elapsed)
	} else {
		r.logger.Warn("fit failed", "id", o.ID, "reason", o.Result.Reason())
	}

	if r.cfg.Observer != nil {
		r.cfg.Observer.Observe(o, res.elapsed)
	}
}

func (r *Runner) dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			r.logger.Warn("duplicate spectrum identifier skipped", "id", id)
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
