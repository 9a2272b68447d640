package profile

import (
	"strconv"
	"testing"
)

func BenchmarkFaddeeva(b *testing.B) {
	zs := []complex128{complex(0.5, 0.5), complex(3, 0.01), complex(20, 1)}
	for _, z := range zs {
		b.Run(strconv.FormatFloat(real(z), 'g', -1, 64), func(b *testing.B) {
			for range b.N {
				Faddeeva(z)
			}
		})
	}
}

func BenchmarkSingleVoigtEvaluate(b *testing.B) {
	sizes := []int{64, 256, 1024}
	params := []float64{1, 0, 0.3, 0.2}

	for _, n := range sizes {
		x := make([]float64, n)
		for i := range x {
			x[i] = -1 + 2*float64(i)/float64(n-1)
		}

		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				SingleVoigt{}.Evaluate(x, params)
			}
		})
	}
}
