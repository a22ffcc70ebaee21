package rfm

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientDistinctValues matches any *InsufficientDistinctValuesError.
var ErrInsufficientDistinctValues = errors.New("insufficient distinct values for quantile binning")

// InsufficientDistinctValuesError is returned when quantile edges collapse,
// i.e. the values cannot be split into the requested number of buckets.
type InsufficientDistinctValuesError struct {
	Metric   string
	Distinct int
	Buckets  int
}

func (e *InsufficientDistinctValuesError) Error() string {
	metric := e.Metric
	if metric == "" {
		metric = "values"
	}
	return fmt.Sprintf("%s: cannot split %d distinct value(s) into %d quantile buckets (duplicate bin edges)", metric, e.Distinct, e.Buckets)
}

func (e *InsufficientDistinctValuesError) Is(target error) bool {
	return target == ErrInsufficientDistinctValues
}

// QuantileEdges returns k+1 linear-interpolated quantile edges of values.
func QuantileEdges(values []float64, k int) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	edges := make([]float64, k+1)
	for i := 0; i <= k; i++ {
		edges[i] = quantile(sorted, float64(i)/float64(k))
	}
	return edges
}

// ScoreQuantiles assigns each value to one of k equal-frequency buckets.
// Bins are right-closed and the lowest bin includes the minimum, so with
// edges e0..ek a value v gets the smallest i with v <= e_i (at least 1).
// Duplicate edges yield *InsufficientDistinctValuesError.
func ScoreQuantiles(values []float64, k int) ([]Score, error) {
	if k < 1 {
		return nil, fmt.Errorf("invalid bucket count %d", k)
	}
	if len(values) == 0 {
		return []Score{}, nil
	}
	edges := QuantileEdges(values, k)
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, &InsufficientDistinctValuesError{Distinct: distinct(values), Buckets: k}
		}
	}
	out := make([]Score, len(values))
	for i, v := range values {
		out[i] = bucketOf(v, edges)
	}
	return out, nil
}

func bucketOf(v float64, edges []float64) Score {
	k := len(edges) - 1
	for i := 1; i < k; i++ {
		if v <= edges[i] {
			return Score(i)
		}
	}
	return Score(k)
}

// ScoreRanked is the rank-based fallback: values are ordered ascending with
// ties kept in input order, and the element at 0-based rank p gets
// floor(p*k/n)+1. Any non-empty input succeeds.
func ScoreRanked(values []float64, k int) ([]Score, error) {
	if k < 1 {
		return nil, fmt.Errorf("invalid bucket count %d", k)
	}
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	out := make([]Score, n)
	for rank, i := range idx {
		out[i] = Score(rank*k/n + 1)
	}
	return out, nil
}

func distinct(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	a, b := sorted[lo], sorted[hi]
	if a == b {
		return a
	}
	w := pos - float64(lo)
	if w >= 0.5 {
		return b - (b-a)*(1-w)
	}
	return a + (b-a)*w
}
