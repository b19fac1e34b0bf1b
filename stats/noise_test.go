package stats

import (
	"math"

	"github.com/sartorproj/gasweather/timeseries"
)

// splitmix64 is a tiny deterministic generator so expected test statistics
// do not depend on math/rand's stream.
type splitmix64 struct{ state uint64 }

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// gaussianNoise returns n standard normal draws (Box-Muller).
func gaussianNoise(seed uint64, n int) []float64 {
	g := &splitmix64{state: seed}
	out := make([]float64, 0, n)
	for len(out) < n {
		u1 := float64(g.next()>>11+1) / (1 << 53)
		u2 := float64(g.next()>>11) / (1 << 53)
		r := math.Sqrt(-2 * math.Log(u1))
		out = append(out, r*math.Cos(2*math.Pi*u2))
		if len(out) < n {
			out = append(out, r*math.Sin(2*math.Pi*u2))
		}
	}
	return out
}

func cumsum(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}

func linearTrend(n int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i + 1)
	}
	return timeseries.New(values)
}

func whiteNoise() *timeseries.Series {
	return timeseries.New(gaussianNoise(42, 30))
}

func randomWalk() *timeseries.Series {
	return timeseries.New(cumsum(gaussianNoise(42, 100)))
}

func integratedTwice() *timeseries.Series {
	return timeseries.New(cumsum(cumsum(gaussianNoise(42, 100))))
}
