package quality

import (
	"math"
	"sort"

	"tablenorm/pkg/contracts/domain"
)

// percentileValue returns the value at the given percentile (0..1) of a
// sorted slice, with linear interpolation between neighbors.
func percentileValue(sorted []float64, percentile float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if percentile <= 0 {
		return sorted[0]
	}
	if percentile >= 1 {
		return sorted[n-1]
	}

	index := percentile * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// median returns the middle value of the slice, 0 for an empty slice.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// iqrBounds returns the [Q1-m*IQR, Q3+m*IQR] outlier bounds for the
// values.
func iqrBounds(values []float64, multiplier float64) (lo, hi float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := percentileValue(sorted, 0.25)
	q3 := percentileValue(sorted, 0.75)
	iqr := q3 - q1
	return q1 - multiplier*iqr, q3 + multiplier*iqr
}

// columnValues collects the present values of one column together with
// their row indices.
func columnValues(t domain.NormalizedTable, column string) (values []float64, rows []int) {
	for i := 0; i < t.Len(); i++ {
		if v := t.Value(i, column); v != nil {
			values = append(values, *v)
			rows = append(rows, i)
		}
	}
	return values, rows
}

// valueColumns returns the names of the ordinary data columns, excluding
// flag sidecars added during cleaning.
func valueColumns(t domain.NormalizedTable) []string {
	var names []string
	for _, c := range t.Columns() {
		if c.Kind == domain.ColumnValue {
			names = append(names, c.Name)
		}
	}
	return names
}
