package segment

import (
	"fmt"
	"math"
)

// table holds best[s][j], the minimal incoherence of covering sentences
// [0, j) with exactly s segments, and the split that achieves it.
type table struct {
	best [][]float64
	prev [][]int
}

// solve fills the table for segment counts 0..maxSegments. Ties keep the
// earliest split position.
func (m *costModel) solve(maxSegments int) *table {
	n := m.n
	inf := math.Inf(1)
	t := &table{
		best: make([][]float64, maxSegments+1),
		prev: make([][]int, maxSegments+1),
	}
	for s := range t.best {
		t.best[s] = make([]float64, n+1)
		t.prev[s] = make([]int, n+1)
		for j := range t.best[s] {
			t.best[s][j] = inf
			t.prev[s][j] = -1
		}
	}
	t.best[0][0] = 0

	for s := 1; s <= maxSegments; s++ {
		for j := s; j <= n; j++ {
			bestVal, arg := inf, -1
			for i := s - 1; i < j; i++ {
				if math.IsInf(t.best[s-1][i], 1) {
					continue
				}
				v := t.best[s-1][i] + m.segmentCost(i, j)
				if v < bestVal {
					bestVal, arg = v, i
				}
			}
			t.best[s][j] = bestVal
			t.prev[s][j] = arg
		}
	}
	return t
}

// splits backtracks the split indices of the s-segment solution over n sentences.
func (t *table) splits(s, n int) []int {
	out := make([]int, s-1)
	j := n
	for ; s > 1; s-- {
		i := t.prev[s][j]
		out[s-2] = i
		j = i
	}
	return out
}

// Optimal returns the partition minimizing incoherence plus penalty per
// segment, considering at most maxSegments segments (DefaultMaxSegments when
// zero or negative). Among equal objectives it prefers fewer segments.
func Optimal(vectors [][]float64, penalty float64, maxSegments int) (Segmentation, error) {
	if len(vectors) == 0 {
		return Segmentation{}, fmt.Errorf("%w: no sentences", ErrInsufficientInput)
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return Segmentation{}, err
	}
	return m.optimal(penalty, maxSegments), nil
}

func (m *costModel) optimal(penalty float64, maxSegments int) Segmentation {
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}
	if maxSegments > m.n {
		maxSegments = m.n
	}
	t := m.solve(maxSegments)

	bestS := 1
	bestTotal := t.best[1][m.n] + penalty
	for s := 2; s <= maxSegments; s++ {
		total := t.best[s][m.n] + penalty*float64(s)
		if total < bestTotal-tolerance(bestTotal) {
			bestS, bestTotal = s, total
		}
	}
	return Segmentation{
		Splits:  t.splits(bestS, m.n),
		N:       m.n,
		Penalty: penalty,
		Cost:    bestTotal,
	}
}
