// Package uncertainty summarizes the parameter standard deviations of many
// line fits, exposing systematic fit-quality problems across a corpus.
package uncertainty

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-linefit/fit"
)

// DefaultBins is the histogram bin count.
const DefaultBins = 20

// Config holds aggregation parameters.
type Config struct {
	Bins int
}

func normalizeConfig(cfg Config) Config {
	if cfg.Bins <= 0 {
		cfg.Bins = DefaultBins
	}

	return cfg
}

// Histogram holds equal-width bins. Edges has len(Counts)+1 entries; the
// last bin includes its upper edge. Edges is nil when no values were binned.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Distribution is the collected standard deviations of one parameter.
type Distribution struct {
	Param string

	// StdDevs holds one value per successful fit, in input order.
	StdDevs []float64

	// NonFinite counts values excluded from the histogram and the summary
	// statistics below.
	NonFinite int

	Histogram Histogram
	Min       float64
	Max       float64
	Mean      float64
	Median    float64
}

// Report is the aggregate over a set of fit results.
type Report struct {
	Total          int
	Succeeded      int
	FailedFitCount int
	Params         []string
	Distributions  []Distribution
}

// Distribution returns the distribution of the named parameter.
func (r Report) Distribution(param string) (Distribution, bool) {
	for _, d := range r.Distributions {
		if d.Param == param {
			return d, true
		}
	}

	return Distribution{}, false
}

// Aggregate partitions the standard deviations of the successful results by
// parameter. Failed results, and successes whose deviation count does not
// match params, are counted in FailedFitCount and otherwise ignored.
func Aggregate(params []string, results []fit.Result, cfg Config) Report {
	cfg = normalizeConfig(cfg)

	rep := Report{
		Total:         len(results),
		Params:        append([]string(nil), params...),
		Distributions: make([]Distribution, len(params)),
	}

	for i, p := range params {
		rep.Distributions[i].Param = p
	}

	for _, res := range results {
		if !res.OK() || len(res.StdDevs) != len(params) {
			rep.FailedFitCount++
			continue
		}

		rep.Succeeded++

		for i, v := range res.StdDevs {
			rep.Distributions[i].StdDevs = append(rep.Distributions[i].StdDevs, v)
		}
	}

	for i := range rep.Distributions {
		summarize(&rep.Distributions[i], cfg.Bins)
	}

	return rep
}

func summarize(d *Distribution, bins int) {
	finite := make([]float64, 0, len(d.StdDevs))

	for _, v := range d.StdDevs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			d.NonFinite++
			continue
		}

		finite = append(finite, v)
	}

	d.Histogram = NewHistogram(finite, bins)

	if len(finite) == 0 {
		d.Min, d.Max, d.Mean, d.Median = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return
	}

	sort.Float64s(finite)
	d.Min = finite[0]
	d.Max = finite[len(finite)-1]
	d.Mean = stat.Mean(finite, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
}

// NewHistogram bins finite values into bins equal-width bins spanning
// [min, max]. A constant sample spans [v-0.5, v+0.5].
func NewHistogram(values []float64, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}

	h := Histogram{Counts: make([]int, bins)}
	if len(values) == 0 {
		return h
	}

	x := append([]float64(nil), values...)
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	h.Edges = floats.Span(make([]float64, bins+1), lo, hi)

	// stat.Histogram treats the last divider as exclusive.
	dividers := append([]float64(nil), h.Edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	for i, c := range counts {
		h.Counts[i] = int(c)
	}

	return h
}
