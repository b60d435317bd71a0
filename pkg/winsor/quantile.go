package winsor

import (
	"math"
	"sort"
)

// quantile returns the p-th percentile (0 <= p <= 100) of sorted, which must
// be ascending and free of missing values.
//
// The rule is linear interpolation between closest ranks with
// h = (n-1)*p/100 (Hyndman and Fan type 7, the default of numpy and pandas).
// The choice matters at the boundaries: e.g. for [1..9,100] the 90th
// percentile is 18.1 under this rule, not 100.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p / 100
	i := int(math.Floor(h))
	if i < 0 {
		return sorted[0]
	}
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-float64(i))*(sorted[i+1]-sorted[i])
}

// Quantile returns the p-th percentile (0 <= p <= 100) of vals under the
// same interpolation rule the winsorizer uses. The input need not be
// sorted; NaN cells are ignored. Returns NaN when no finite values remain.
func Quantile(vals []float64, p float64) float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	sort.Float64s(clean)
	return quantile(clean, p)
}
