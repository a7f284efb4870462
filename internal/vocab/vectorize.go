package vocab

import "sort"

// termCount is one non-zero entry of a sentence's count row.
type termCount struct {
	index int
	count int
}

// termCounts returns the vocabulary-restricted count row of sentence, keyed by
// vocabulary index in ascending order. Unknown tokens are skipped.
func termCounts(sentence string, v *Vocabulary) []termCount {
	counts := make(map[int]int)
	for _, tok := range Tokenize(sentence) {
		if i, ok := v.index[tok]; ok {
			counts[i]++
		}
	}
	row := make([]termCount, 0, len(counts))
	for i, c := range counts {
		row = append(row, termCount{index: i, count: c})
	}
	sort.Slice(row, func(a, b int) bool { return row[a].index < row[b].index })
	return row
}

// SentenceVector returns the count-weighted sum of the vocabulary vectors of
// the tokens in sentence. A sentence without known tokens yields zeros.
func SentenceVector(sentence string, v *Vocabulary) []float64 {
	out := make([]float64, v.dim)
	for _, tc := range termCounts(sentence, v) {
		w := float64(tc.count)
		for d, x := range v.vectors[tc.index] {
			out[d] += w * float64(x)
		}
	}
	return out
}

// Vectorize returns one sentence vector per sentence, in input order. This is
// the product of the (sentences × vocabulary) count matrix with the
// (vocabulary × dimensions) vector matrix.
func Vectorize(sentences []string, v *Vocabulary) [][]float64 {
	out := make([][]float64, len(sentences))
	for i, s := range sentences {
		out[i] = SentenceVector(s, v)
	}
	return out
}
