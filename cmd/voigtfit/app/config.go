package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-linefit/batch"
	"github.com/cwbudde/algo-linefit/fit"
	"github.com/cwbudde/algo-linefit/spectrum"
	"github.com/cwbudde/algo-linefit/stats/uncertainty"
)

// Config holds the command configuration. Values are read from an optional
// YAML file first; flags given on the command line take precedence.
type Config struct {
	ConfigFile string `yaml:"-"`

	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	PlotDir     string `yaml:"plots"`
	MetricsFile string `yaml:"metrics"`

	Mode                string  `yaml:"mode"`
	Solver              string  `yaml:"solver"`
	Workers             int     `yaml:"workers"`
	Radius              float64 `yaml:"radius"`
	Bins                int     `yaml:"bins"`
	MaxIterations       int     `yaml:"maxIterations"`
	AllowNegativeWidths bool    `yaml:"allowNegativeWidths"`
	Weighted            bool    `yaml:"weighted"`
	Verbose             bool    `yaml:"verbose"`

	// Output receives the text report.
	Output io.Writer `yaml:"-"`
}

func NewConfig() *Config {
	return &Config{
		Mode:    batch.ModeSingle.String(),
		Solver:  fit.SolverBounded.String(),
		Workers: 1,
		Radius:  spectrum.DefaultRadius,
		Bins:    uncertainty.DefaultBins,
		Output:  os.Stdout,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c, err := NewConfigFromArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}

	return c, nil
}

// NewConfigFromArgs parses args with fs.
func NewConfigFromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	fs.StringVar(&c.ConfigFile, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&c.Dir, "dir", "", "Directory of spectrum files to fit")
	fs.StringVar(&c.File, "file", "", "Single spectrum file to fit")
	fs.StringVar(&c.PlotDir, "plots", "", "Directory for diagnostic plots (disabled when empty)")
	fs.StringVar(&c.MetricsFile, "metrics", "", "Write Prometheus metrics in text format to this file")
	fs.StringVar(&c.Mode, "mode", c.Mode, "Fit configuration. [single, double]")
	fs.StringVar(&c.Solver, "solver", c.Solver, "Least-squares backend. [bounded, lm]")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of concurrent fits")
	fs.Float64Var(&c.Radius, "radius", c.Radius, "Window half-width around the deepest sample, in wavelength units")
	fs.IntVar(&c.Bins, "bins", c.Bins, "Histogram bins for the uncertainty distributions")
	fs.IntVar(&c.MaxIterations, "max-iterations", 0, "Solver iteration cap (0 selects 100*(params+1))")
	fs.BoolVar(&c.AllowNegativeWidths, "allow-negative", false, "Do not bound sigma and gamma at zero")
	fs.BoolVar(&c.Weighted, "weighted", false, "Weight residuals by 1/fluxErr")
	fs.BoolVar(&c.Verbose, "v", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.ConfigFile != "" {
		if err := c.load(c.ConfigFile); err != nil {
			return nil, err
		}

		// Flags override the file.
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file '%s': %w", path, err)
	}

	return nil
}

func (c *Config) validate() error {
	switch {
	case c.Dir == "" && c.File == "":
		return errors.New("either dir or file is required")
	case c.Dir != "" && c.File != "":
		return errors.New("dir and file are mutually exclusive")
	case c.Workers < 1:
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	case c.Bins < 1:
		return fmt.Errorf("invalid bin count: %d", c.Bins)
	case c.MaxIterations < 0:
		return fmt.Errorf("invalid iteration cap: %d", c.MaxIterations)
	}

	_, err := c.BatchConfig()

	return err
}

// BatchConfig translates c into the runner configuration.
func (c *Config) BatchConfig() (batch.Config, error) {
	mode, err := batch.ParseMode(c.Mode)
	if err != nil {
		return batch.Config{}, err
	}

	solver, err := fit.ParseSolver(c.Solver)
	if err != nil {
		return batch.Config{}, err
	}

	if solver == fit.SolverLM && (mode == batch.ModeDouble || !c.AllowNegativeWidths) {
		return batch.Config{}, errors.New("solver lm is unbounded: use mode single with allow-negative")
	}

	return batch.Config{
		Mode:   mode,
		Window: spectrum.WindowConfig{Radius: c.Radius},
		Fit: fit.BatchOptions{
			AllowNegativeWidths: c.AllowNegativeWidths,
			MaxIterations:       c.MaxIterations,
			Solver:              solver,
		},
		Weighted:    c.Weighted,
		Workers:     c.Workers,
		Uncertainty: uncertainty.Config{Bins: c.Bins},
	}, nil
}

// Source returns the corpus selected by Dir or File.
func (c *Config) Source() batch.Source {
	if c.File != "" {
		return FileSource{Path: c.File}
	}

	return DirSource{Dir: c.Dir}
}
