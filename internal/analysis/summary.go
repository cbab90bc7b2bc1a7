package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	First  float64
	Last   float64
}

// Summarize skips non-finite values. A column with no finite values yields
// a zero Summary.
func Summarize(data []float64) Summary {
	clean := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Summary{}
	}

	mean, std := stat.MeanStdDev(clean, nil)
	if len(clean) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(clean),
		Min:    floats.Min(clean),
		Max:    floats.Max(clean),
		Mean:   mean,
		StdDev: std,
		First:  clean[0],
		Last:   clean[len(clean)-1],
	}
}

// Drift is the relative change from the first to the last value.
func (s Summary) Drift() float64 {
	if s.First == 0 {
		return 0
	}
	return (s.Last - s.First) / math.Abs(s.First)
}
