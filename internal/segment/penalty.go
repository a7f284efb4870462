package segment

import (
	"fmt"
	"math"
)

// Penalty calibrates the per-segment penalty so that the optimal partition
// has roughly len(vectors)/segmentLen segments.
//
// With k the rounded target count and C(s) the minimal incoherence using s
// segments, the penalty is the midpoint of the marginal gains C(k-1)-C(k) and
// C(k)-C(k+1). At that penalty adding the k-th segment pays off and adding the
// (k+1)-th does not. The calculation is deterministic.
func Penalty(vectors [][]float64, segmentLen int) (float64, error) {
	if segmentLen < 1 {
		return 0, fmt.Errorf("%w: segment length %d", ErrInvalidOptions, segmentLen)
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return 0, err
	}
	return m.penalty(segmentLen)
}

func (m *costModel) penalty(segmentLen int) (float64, error) {
	n := m.n
	k := int(math.Round(float64(n) / float64(segmentLen)))
	if n < 2 || k < 2 {
		return 0, fmt.Errorf("%w: %d sentences at segment length %d", ErrInsufficientInput, n, segmentLen)
	}

	top := k + 1
	if top > n {
		top = n
	}
	t := m.solve(top)

	gain := t.best[k-1][n] - t.best[k][n]
	next := 0.0
	if k+1 <= n {
		next = t.best[k][n] - t.best[k+1][n]
	}
	p := (gain + next) / 2
	if p < tolerance(t.best[1][n]) {
		p = 0
	}
	return p, nil
}
