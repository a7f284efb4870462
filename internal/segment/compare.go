package segment

import "fmt"

// Total evaluates the objective of an arbitrary split set.
func Total(vectors [][]float64, splits []int, penalty float64) (float64, error) {
	seg := Segmentation{Splits: splits, N: len(vectors)}
	if err := seg.Validate(); err != nil {
		return 0, fmt.Errorf("%w: splits %v over %d sentences", err, splits, len(vectors))
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return 0, err
	}
	return m.total(splits, penalty), nil
}

// Split calibrates the penalty for opts.SegmentLen and partitions the vectors.
// The greedy variant is limited to as many splits as the optimal solution.
func Split(vectors [][]float64, opts Options) (Segmentation, error) {
	if opts.SegmentLen < 1 {
		return Segmentation{}, fmt.Errorf("%w: segment length %d", ErrInvalidOptions, opts.SegmentLen)
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return Segmentation{}, err
	}
	pen, err := m.penalty(opts.SegmentLen)
	if err != nil {
		return Segmentation{}, err
	}
	opt := m.optimal(pen, opts.MaxSegments)
	if !opts.Greedy {
		return opt, nil
	}
	return m.greedy(pen, len(opt.Splits)), nil
}

// Comparison reports how the optimal and greedy partitions of the same
// sentences differ.
type Comparison struct {
	Sentences      int          `json:"sentences"`
	Penalty        float64      `json:"penalty"`
	Optimal        Segmentation `json:"optimal"`
	Greedy         Segmentation `json:"greedy"`
	OptimalCost    float64      `json:"optimal_cost"`
	GreedyCost     float64      `json:"greedy_cost"`
	Ratio          float64      `json:"ratio"`
	OptimalLengths []int        `json:"optimal_lengths"`
	GreedyLengths  []int        `json:"greedy_lengths"`
}

// Compare runs both algorithms at the calibrated penalty. Ratio is the
// optimal cost over the greedy cost, 1 when both are zero.
func Compare(vectors [][]float64, opts Options) (Comparison, error) {
	if opts.SegmentLen < 1 {
		return Comparison{}, fmt.Errorf("%w: segment length %d", ErrInvalidOptions, opts.SegmentLen)
	}
	m, err := newCostModel(vectors)
	if err != nil {
		return Comparison{}, err
	}
	pen, err := m.penalty(opts.SegmentLen)
	if err != nil {
		return Comparison{}, err
	}
	opt := m.optimal(pen, opts.MaxSegments)
	gr := m.greedy(pen, len(opt.Splits))

	ratio := 1.0
	if gr.Cost != 0 {
		ratio = opt.Cost / gr.Cost
	}
	return Comparison{
		Sentences:      m.n,
		Penalty:        pen,
		Optimal:        opt,
		Greedy:         gr,
		OptimalCost:    opt.Cost,
		GreedyCost:     gr.Cost,
		Ratio:          ratio,
		OptimalLengths: opt.Lengths(),
		GreedyLengths:  gr.Lengths(),
	}, nil
}
