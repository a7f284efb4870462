package segment

import (
	"fmt"
	"sort"
)

// Greedy adds split points one at a time, each time choosing the position
// that reduces incoherence the most, while the reduction exceeds the penalty
// and fewer than maxSplits splits have been placed. Ties go to the earliest
// position.
func Greedy(vectors [][]float64, penalty float64, maxSplits int) (Segmentation, error) {
	if len(vectors) == 0 {
		return Segmentation{}, fmt.Errorf("%w: no sentences", ErrInsufficientInput)
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return Segmentation{}, err
	}
	return m.greedy(penalty, maxSplits), nil
}

func (m *costModel) greedy(penalty float64, maxSplits int) Segmentation {
	splits := []int{}
	for len(splits) < maxSplits {
		bestGain, bestPos := 0.0, -1
		prev := 0
		for b := 0; b <= len(splits); b++ {
			end := m.n
			if b < len(splits) {
				end = splits[b]
			}
			whole := m.segmentCost(prev, end)
			for p := prev + 1; p < end; p++ {
				g := whole - m.segmentCost(prev, p) - m.segmentCost(p, end)
				if bestPos < 0 || g > bestGain {
					bestGain, bestPos = g, p
				}
			}
			prev = end
		}
		if bestPos < 0 || bestGain <= penalty+tolerance(penalty) {
			break
		}
		splits = append(splits, bestPos)
		sort.Ints(splits)
	}
	return Segmentation{
		Splits:  splits,
		N:       m.n,
		Penalty: penalty,
		Cost:    m.total(splits, penalty),
	}
}
