package preview

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FrameStats summarizes host-side frame costs in milliseconds.
type FrameStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Summarize computes FrameStats over costs.
func Summarize(costs []float64) FrameStats {
	if len(costs) == 0 {
		return FrameStats{}
	}
	sorted := append([]float64(nil), costs...)
	sort.Float64s(sorted)

	fs := FrameStats{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:   floats.Max(sorted),
	}
	if len(sorted) > 1 {
		fs.StdDev = stat.StdDev(sorted, nil)
	}
	return fs
}
