package batch

import (
	"github.com/cwbudde/algo-linefit/fit"
	"github.com/cwbudde/algo-linefit/stats/uncertainty"
)

// Summary collects one fit result per spectrum of a batch. It is only
// written by the runner's collecting goroutine and is read-only once Run
// returns.
type Summary struct {
	// IDs lists every processed identifier in corpus order.
	IDs []string

	// Results holds the outcome of every identifier in IDs.
	Results map[string]fit.Result

	// Failed lists the identifiers whose fit failed, in corpus order.
	Failed []string

	// Params are the fitted model's parameter names.
	Params []string

	// Uncertainty partitions the standard deviations of the successful
	// fits by parameter.
	Uncertainty uncertainty.Report
}

func newSummary(params []string) *Summary {
	return &Summary{
		Results: make(map[string]fit.Result),
		Params:  params,
	}
}

func (s *Summary) add(id string, res fit.Result) {
	s.IDs = append(s.IDs, id)
	s.Results[id] = res

	if !res.OK() {
		s.Failed = append(s.Failed, id)
	}
}

func (s *Summary) finish(cfg uncertainty.Config) {
	ordered := make([]fit.Result, len(s.IDs))
	for i, id := range s.IDs {
		ordered[i] = s.Results[id]
	}

	s.Uncertainty = uncertainty.Aggregate(s.Params, ordered, cfg)
}

// Total returns the number of processed spectra.
func (s *Summary) Total() int { return len(s.IDs) }

// FailureCount returns the number of failed fits.
func (s *Summary) FailureCount() int { return len(s.Failed) }

// StdDevs returns the standard deviations of param across the successful
// fits, in corpus order.
func (s *Summary) StdDevs(param string) []float64 {
	d, ok := s.Uncertainty.Distribution(param)
	if !ok {
		return nil
	}

	return d.StdDevs
}
