package batch

import (
	"fmt"

	"github.com/cwbudde/algo-linefit/fit"
	"github.com/cwbudde/algo-linefit/profile"
	"github.com/cwbudde/algo-linefit/spectrum"
	"github.com/cwbudde/algo-linefit/stats/uncertainty"
)

// Mode selects the named fit configuration applied to every spectrum.
type Mode int

const (
	// ModeSingle fits one Voigt profile on normalized wavelengths.
	ModeSingle Mode = iota
	// ModeDouble fits two shared-center Voigt profiles in wavelength units.
	ModeDouble
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeDouble:
		return "double"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "single":
		return ModeSingle, nil
	case "double":
		return ModeDouble, nil
	}

	return 0, fmt.Errorf("batch: unknown mode %q", name)
}

// Model returns the line model fitted in mode m.
func (m Mode) Model() profile.Model {
	if m == ModeDouble {
		return profile.DoubleVoigt{}
	}

	return profile.SingleVoigt{}
}

// Config holds batch parameters.
type Config struct {
	Mode   Mode
	Window spectrum.WindowConfig

	// NormLo and NormHi are the normalized coordinate range. Both zero
	// selects [-1, 1].
	NormLo, NormHi float64

	Fit fit.BatchOptions

	// Weighted fits with residuals scaled by 1/fluxErr.
	Weighted bool

	// Workers is the number of concurrent fits. Values below 1 select 1.
	Workers int

	Uncertainty uncertainty.Config

	// Observer, when set, is called from the collecting goroutine once per
	// spectrum.
	Observer Observer
}

func normalizeConfig(cfg Config) Config {
	if cfg.NormLo == 0 && cfg.NormHi == 0 {
		cfg.NormLo, cfg.NormHi = -1, 1
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg
}
