package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cwbudde/algo-linefit/batch"
)

// WriteReport prints the failure list and a per-parameter table of the
// standard-deviation distributions.
func WriteReport(w io.Writer, s *batch.Summary) error {
	rep := s.Uncertainty

	if _, err := fmt.Fprintf(w, "Spectra processed: %s (%s succeeded)\n",
		humanize.Comma(int64(s.Total())), humanize.Comma(int64(rep.Succeeded))); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Number of fit errors: %s\n", humanize.Comma(int64(s.FailureCount()))); err != nil {
		return err
	}

	if len(s.Failed) > 0 {
		if _, err := fmt.Fprintln(w, "Spectra that couldn't be fit:"); err != nil {
			return err
		}

		for _, id := range s.Failed {
			if _, err := fmt.Fprintf(w, "  * %s: %s\n", id, s.Results[id].Reason()); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Parameter\tFits\tNon-finite\tMin\tMedian\tMean\tMax\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "---------\t----\t----------\t---\t------\t----\t---\n"); err != nil {
		return err
	}

	for _, d := range rep.Distributions {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n",
			d.Param,
			humanize.Comma(int64(len(d.StdDevs))),
			d.NonFinite,
			d.Min,
			d.Median,
			d.Mean,
			d.Max,
		); err != nil {
			return err
		}
	}

	return tw.Flush()
}
