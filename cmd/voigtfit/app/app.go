package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/algo-linefit/batch"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	cfg, err := config.BatchConfig()
	if err != nil {
		return err
	}

	var observers observerList

	if config.PlotDir != "" {
		if err := os.MkdirAll(config.PlotDir, 0o755); err != nil {
			return fmt.Errorf("creating plot directory: %w", err)
		}

		observers = append(observers, PlotObserver{Dir: config.PlotDir, Logger: logger})
	}

	var metrics *Metrics
	if config.MetricsFile != "" {
		metrics = NewMetrics(cfg.Mode.String())
		observers = append(observers, metrics)
	}

	if len(observers) > 0 {
		cfg.Observer = observers
	}

	logger.Info("fit configuration",
		slog.Group("fit",
			slog.String("mode", cfg.Mode.String()),
			slog.String("solver", cfg.Fit.Solver.String()),
			slog.Float64("radius", config.Radius),
			slog.Bool("weighted", cfg.Weighted),
			slog.Bool("allowNegativeWidths", cfg.Fit.AllowNegativeWidths),
		))

	start := time.Now()

	summary, runErr := batch.NewRunner(cfg, logger).Run(ctx, config.Source())
	if summary == nil {
		return runErr
	}

	logger.Info("fits finished", "elapsed", time.Since(start).Round(time.Millisecond))

	if err := WriteReport(config.Output, summary); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}

	if config.PlotDir != "" {
		for _, d := range summary.Uncertainty.Distributions {
			if err := PlotDistribution(d, DistributionPlotPath(config.PlotDir, d.Param)); err != nil {
				errs = append(errs, fmt.Errorf("rendering %s histogram: %w", d.Param, err))
			}
		}
	}

	if metrics != nil {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

type observerList []batch.Observer

func (l observerList) Observe(o batch.Outcome, elapsed time.Duration) {
	for _, obs := range l {
		obs.Observe(o, elapsed)
	}
}
