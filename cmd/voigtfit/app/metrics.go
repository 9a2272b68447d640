package app

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-linefit/batch"
	"github.com/cwbudde/algo-linefit/fit"
	"github.com/cwbudde/algo-linefit/spectrum"
)

// Metrics counts fit outcomes and timings of one run. Metrics are written
// once at the end of the run in the node-exporter textfile format.
//
// Metrics exposed:
//   - voigtfit_fits_total: Counter of fits by outcome
//   - voigtfit_fit_seconds: Histogram of per-spectrum load and fit duration
//   - voigtfit_fit_iterations: Histogram of solver iterations of successful fits
type Metrics struct {
	registry   *prometheus.Registry
	Fits       *prometheus.CounterVec
	Duration   prometheus.Histogram
	Iterations prometheus.Histogram
}

// NewMetrics creates a private registry labelled with the fit mode.
func NewMetrics(mode string) *Metrics {
	labels := prometheus.Labels{"mode": mode}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "voigtfit_fits_total",
			Help:        "Spectra processed, by fit outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "voigtfit_fit_seconds",
			Help:        "Time spent loading and fitting one spectrum",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		Iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "voigtfit_fit_iterations",
			Help:        "Solver iterations of successful fits",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	m.registry.MustRegister(m.Fits, m.Duration, m.Iterations)

	return m
}

func (m *Metrics) Observe(o batch.Outcome, elapsed time.Duration) {
	m.Fits.WithLabelValues(outcomeLabel(o.Result)).Inc()
	m.Duration.Observe(elapsed.Seconds())

	if o.Result.OK() {
		m.Iterations.Observe(float64(o.Result.Iterations))
	}
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func outcomeLabel(res fit.Result) string {
	switch err := res.Err; {
	case err == nil:
		return "success"
	case errors.Is(err, batch.ErrLoad):
		return "load_error"
	case errors.Is(err, spectrum.ErrDegenerateRange):
		return "degenerate_range"
	case errors.Is(err, batch.ErrSkippedInput):
		return "invalid_spectrum"
	case errors.Is(err, fit.ErrInvalidConfig), errors.Is(err, batch.ErrFluxErr):
		return "invalid_config"
	default:
		return "no_convergence"
	}
}
