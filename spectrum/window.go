package spectrum

// DefaultRadius is the half-width of the fit window in wavelength units.
const DefaultRadius = 10.0

// WindowConfig holds window selection parameters.
type WindowConfig struct {
	// Radius is the half-width around the minimum-flux wavelength.
	// Non-positive values select DefaultRadius.
	Radius float64
}

func normalizeWindowConfig(cfg WindowConfig) WindowConfig {
	if cfg.Radius <= 0 || !isFinite(cfg.Radius) {
		cfg.Radius = DefaultRadius
	}

	return cfg
}

// MinFluxIndex returns the index of the smallest flux value, preferring the
// first occurrence on ties. It returns -1 for an empty spectrum.
func MinFluxIndex(s Spectrum) int {
	if len(s) == 0 {
		return -1
	}

	idx := 0
	for i := 1; i < len(s); i++ {
		if s[i].Flux < s[idx].Flux {
			idx = i
		}
	}

	return idx
}

// Window returns the samples whose wavelength lies within radius of the
// minimum-flux wavelength, bounds inclusive, in input order. The result
// always contains the minimum-flux sample and may be asymmetric near the
// spectrum edges. Empty input yields nil.
func Window(s Spectrum, cfg WindowConfig) Spectrum {
	cfg = normalizeWindowConfig(cfg)

	idx := MinFluxIndex(s)
	if idx < 0 {
		return nil
	}

	center := s[idx].Wavelength
	lo, hi := center-cfg.Radius, center+cfg.Radius

	out := make(Spectrum, 0, len(s))
	for _, p := range s {
		if p.Wavelength >= lo && p.Wavelength <= hi {
			out = append(out, p)
		}
	}

	return out
}
