// Package segment partitions an ordered sequence of sentence vectors into
// contiguous, topically coherent segments.
//
// The objective of a partition is the sum over its segments of the squared
// deviations of the (unit-normalized) sentence vectors from the segment mean,
// plus a penalty per segment. Optimal solves it exactly by dynamic programming
// over prefix positions; Greedy is a fast approximation kept for diagnostics.
package segment

import "errors"

// DefaultMaxSegments caps the number of segments Optimal considers.
const DefaultMaxSegments = 250

var (
	// ErrInsufficientInput means there are too few sentences for the requested
	// segment length. Callers treat the whole sequence as one segment.
	ErrInsufficientInput = errors.New("insufficient input for segmentation")

	// ErrMalformedSegmentation means split indices overlap, are unsorted, or do
	// not cover the sentence sequence.
	ErrMalformedSegmentation = errors.New("malformed segmentation")

	// ErrInvalidOptions reports a non-positive segment length.
	ErrInvalidOptions = errors.New("invalid segmentation options")

	// ErrDimensionMismatch reports sentence vectors of differing lengths.
	ErrDimensionMismatch = errors.New("sentence vectors differ in dimension")
)

// Segmentation is a partition of N sentences given by its split indices.
// A split index s starts a new segment at sentence s; 0 < s < N.
type Segmentation struct {
	Splits  []int   `json:"splits"`
	N       int     `json:"sentences"`
	Penalty float64 `json:"penalty"`
	Cost    float64 `json:"cost"`
}

// Single returns the one-segment partition of n sentences.
func Single(n int) Segmentation {
	return Segmentation{N: n}
}

// Segments returns the number of segments.
func (s Segmentation) Segments() int {
	if s.N == 0 {
		return 0
	}
	return len(s.Splits) + 1
}

// Lengths returns the number of sentences in each segment.
func (s Segmentation) Lengths() []int {
	if s.N == 0 {
		return nil
	}
	out := make([]int, 0, len(s.Splits)+1)
	prev := 0
	for _, sp := range s.Splits {
		out = append(out, sp-prev)
		prev = sp
	}
	return append(out, s.N-prev)
}

// Validate checks that the splits describe a covering partition into
// non-empty segments.
func (s Segmentation) Validate() error {
	if s.N < 0 {
		return ErrMalformedSegmentation
	}
	prev := 0
	for _, sp := range s.Splits {
		if sp <= prev || sp >= s.N {
			return ErrMalformedSegmentation
		}
		prev = sp
	}
	return nil
}

// Options controls Split.
type Options struct {
	// SegmentLen is the desired average number of sentences per segment.
	SegmentLen int
	// MaxSegments caps the number of segments; zero means DefaultMaxSegments.
	MaxSegments int
	// Greedy selects the approximate algorithm instead of the exact one.
	Greedy bool
}
