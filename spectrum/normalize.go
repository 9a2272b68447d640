package spectrum

// Normalized is an affinely rescaled coordinate array together with the
// source range needed to undo the mapping.
type Normalized struct {
	X []float64

	// Min and Max are the extremes of the source values.
	Min, Max float64

	// Lo and Hi are the target range the source was mapped onto.
	Lo, Hi float64
}

// Normalize maps x onto [-1, 1].
func Normalize(x []float64) (Normalized, error) {
	return NormalizeRange(x, -1, 1)
}

// NormalizeRange maps x onto [lo, hi]. The smallest value maps to exactly lo
// and the largest to exactly hi. It returns ErrDegenerateRange when x is
// empty or all values are equal.
func NormalizeRange(x []float64, lo, hi float64) (Normalized, error) {
	if len(x) == 0 {
		return Normalized{}, ErrDegenerateRange
	}

	xMin, xMax := x[0], x[0]
	for _, v := range x[1:] {
		if v < xMin {
			xMin = v
		}

		if v > xMax {
			xMax = v
		}
	}

	if xMax == xMin || !isFinite(xMax-xMin) {
		return Normalized{}, ErrDegenerateRange
	}

	span := xMax - xMin
	out := make([]float64, len(x))

	for i, v := range x {
		switch v {
		case xMin:
			out[i] = lo
		case xMax:
			out[i] = hi
		default:
			out[i] = lo + (v-xMin)/span*(hi-lo)
		}
	}

	return Normalized{X: out, Min: xMin, Max: xMax, Lo: lo, Hi: hi}, nil
}

// Denormalize maps a normalized value back to source units.
func (n Normalized) Denormalize(v float64) float64 {
	return n.Min + (v-n.Lo)/(n.Hi-n.Lo)*(n.Max-n.Min)
}

// Scale returns the factor converting a normalized length (such as a fitted
// width) back to source units.
func (n Normalized) Scale() float64 {
	return (n.Max - n.Min) / (n.Hi - n.Lo)
}
