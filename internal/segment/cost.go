package segment

import (
	"fmt"
	"math"
)

// costModel answers segment incoherence queries in O(1) after an O(n²·d)
// precomputation.
type costModel struct {
	n    int
	cost []float64 // cost[i*(n+1)+j] for 0 <= i < j <= n
}

// newCostModel unit-normalizes the vectors and tabulates the sum of squared
// deviations from the mean for every segment [i, j). Zero vectors stay zero.
func newCostModel(vectors [][]float64) (*costModel, error) {
	n := len(vectors)
	dim := 0
	if n > 0 {
		dim = len(vectors[0])
	}

	// Prefix sums of the unit vectors and of their squared norms.
	sum := make([][]float64, n+1)
	sq := make([]float64, n+1)
	sum[0] = make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d components, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		u := unit(v)
		row := make([]float64, dim)
		var norm2 float64
		for d := range u {
			row[d] = sum[i][d] + u[d]
			norm2 += u[d] * u[d]
		}
		sum[i+1] = row
		sq[i+1] = sq[i] + norm2
	}

	m := &costModel{n: n, cost: make([]float64, (n+1)*(n+1))}
	for i := 0; i < n; i++ {
		for j := i + 1; j <= n; j++ {
			var s2 float64
			for d := 0; d < dim; d++ {
				x := sum[j][d] - sum[i][d]
				s2 += x * x
			}
			c := sq[j] - sq[i] - s2/float64(j-i)
			if c < 0 {
				c = 0 // rounding
			}
			m.cost[i*(n+1)+j] = c
		}
	}
	return m, nil
}

// segmentCost returns the incoherence of sentences [i, j).
func (m *costModel) segmentCost(i, j int) float64 {
	return m.cost[i*(m.n+1)+j]
}

// total returns the objective of a split set: incoherence plus penalty per segment.
func (m *costModel) total(splits []int, penalty float64) float64 {
	if m.n == 0 {
		return 0
	}
	var t float64
	prev := 0
	for _, sp := range splits {
		t += m.segmentCost(prev, sp)
		prev = sp
	}
	t += m.segmentCost(prev, m.n)
	return t + penalty*float64(len(splits)+1)
}

func unit(v []float64) []float64 {
	var norm2 float64
	for _, x := range v {
		norm2 += x * x
	}
	out := make([]float64, len(v))
	if norm2 == 0 {
		return out
	}
	inv := 1 / math.Sqrt(norm2)
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

// tolerance is the slack below which two objective values count as equal.
func tolerance(x float64) float64 {
	return 1e-9 * (1 + math.Abs(x))
}
