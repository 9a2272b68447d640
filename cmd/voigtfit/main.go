// Command voigtfit fits Voigt profiles to a directory of absorption spectra
// and reports the distribution of the fitted parameter uncertainties.
//
// Usage:
//
//	voigtfit [flags] -dir <spectra>
//	voigtfit [flags] -file <spectrum>
//
// Each spectrum file holds whitespace-separated "wavelength flux fluxErr"
// rows; blank lines and lines starting with '#' are skipped.
//
// Examples:
//
//	voigtfit -dir spectra/synthetic -plots plots
//	voigtfit -dir spectra/real -workers 8 -metrics fits.prom
//	voigtfit -file spectra/real/star01.txt -mode double -plots plots
//	voigtfit -config voigtfit.yaml -v
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-linefit/cmd/voigtfit/app"
)

func main() {
	config, err := app.NewConfigFromCLI()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error(err.Error())
		os.Exit(2)
	}

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
