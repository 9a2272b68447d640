package app

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-linefit/batch"
	"github.com/cwbudde/algo-linefit/profile"
	"github.com/cwbudde/algo-linefit/stats/uncertainty"
)

const (
	plotWidth  = 7 * vg.Inch
	plotHeight = 4 * vg.Inch
)

var (
	dataColor   = color.RGBA{R: 31, G: 119, B: 180, A: 102}
	bandColor   = color.RGBA{R: 31, G: 119, B: 180, A: 51}
	fitColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	firstColor  = color.RGBA{R: 0x2B, G: 0x65, B: 0x81, A: 255}
	secondColor = color.RGBA{R: 0x25, G: 0x72, B: 0x63, A: 255}
	sumColor    = color.RGBA{R: 0x62, G: 0x3B, B: 0x86, A: 255}
	histColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// PlotObserver renders one diagnostic plot per spectrum into Dir.
type PlotObserver struct {
	Dir    string
	Logger *slog.Logger
}

func (p PlotObserver) Observe(o batch.Outcome, _ time.Duration) {
	if len(o.X) == 0 {
		return
	}

	path := filepath.Join(p.Dir, o.ID+".png")
	if err := PlotOutcome(o, path); err != nil {
		p.Logger.Warn("rendering fit plot", "id", o.ID, "error", err)
	}
}

// PlotOutcome draws the windowed data with a +/- fluxErr/2 band and, for a
// successful fit, the fitted curve and its components.
func PlotOutcome(o batch.Outcome, path string) error {
	p := plot.New()
	p.Title.Text = "File " + o.ID
	p.X.Label.Text = "wavelength"
	if o.Norm != nil {
		p.X.Label.Text = "norm. wavelength"
	}
	p.Y.Label.Text = "1 - norm. flux"
	p.Legend.Top = true

	if len(o.YErr) == len(o.Y) {
		band, err := plotter.NewPolygon(errorBand(o.X, o.Y, o.YErr))
		if err != nil {
			return err
		}

		band.Color = bandColor
		band.LineStyle.Width = 0
		p.Add(band)
	}

	data, err := plotter.NewLine(xys(o.X, o.Y))
	if err != nil {
		return err
	}

	data.LineStyle.Color = dataColor
	p.Add(data)
	p.Legend.Add("1 - normalized flux", data)

	if o.Result.OK() {
		if err := addFit(p, o); err != nil {
			return err
		}
	}

	return p.Save(plotWidth, plotHeight, path)
}

func addFit(p *plot.Plot, o batch.Outcome) error {
	params := o.Result.Params

	if len(o.Components) == 2 {
		labels := []string{"Voigt 1", "Voigt 2"}
		colors := []color.Color{firstColor, secondColor}

		for i, c := range o.Components {
			sigma := params[profile.DoubleSigma1+i]
			gamma := params[profile.DoubleGamma1+i]

			line, err := plotter.NewLine(xys(o.X, c))
			if err != nil {
				return err
			}

			line.LineStyle.Color = colors[i]
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("%s (FWHM %.3g)", labels[i], profile.FWHM(sigma, gamma)), line)
		}

		sum, err := plotter.NewLine(xys(o.X, o.Fitted))
		if err != nil {
			return err
		}

		sum.LineStyle.Color = sumColor
		sum.LineStyle.Width = vg.Points(1.5)
		p.Add(sum)
		p.Legend.Add("Sum", sum)

		return nil
	}

	line, err := plotter.NewLine(xys(o.X, o.Fitted))
	if err != nil {
		return err
	}

	line.LineStyle.Color = fitColor
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	fwhm := profile.FWHM(params[profile.SingleSigma], params[profile.SingleGamma])
	p.Legend.Add(fmt.Sprintf("Voigt fit (FWHM %.3g)", fwhm), line)

	return nil
}

// PlotDistribution draws the histogram of one parameter's standard
// deviations with a logarithmic count axis. It is a no-op for a distribution
// without finite values.
func PlotDistribution(d uncertainty.Distribution, path string) error {
	edges := d.Histogram.Edges
	if len(edges) < 2 {
		return nil
	}

	bins := make([]plotter.HistogramBin, len(d.Histogram.Counts))
	for i, c := range d.Histogram.Counts {
		bins[i] = plotter.HistogramBin{Min: edges[i], Max: edges[i+1], Weight: float64(c)}
	}

	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     edges[1] - edges[0],
		FillColor: histColor,
		LineStyle: plotter.DefaultLineStyle,
		LogY:      true,
	}

	p := plot.New()
	p.Title.Text = "Voigt fit: " + d.Param
	p.X.Label.Text = "Std. deviation"
	p.Y.Label.Text = "Count"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(hist)

	return p.Save(plotWidth, plotHeight, path)
}

// DistributionPlotPath returns the histogram file name for param in dir.
func DistributionPlotPath(dir, param string) string {
	return filepath.Join(dir, "fit_stddev_"+param+".png")
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}

	return pts
}

// errorBand is the closed outline of y +/- yerr/2, upper edge left to right
// then lower edge right to left.
func errorBand(x, y, yerr []float64) plotter.XYs {
	n := len(x)
	pts := make(plotter.XYs, 2*n)

	for i := range n {
		pts[i] = plotter.XY{X: x[i], Y: y[i] + yerr[i]/2}
		pts[2*n-1-i] = plotter.XY{X: x[i], Y: y[i] - yerr[i]/2}
	}

	return pts
}
