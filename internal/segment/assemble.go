package segment

import "fmt"

// Record is one sentence of a flattened segmentation.
type Record struct {
	SegmentID int    `json:"segment_id"`
	Sentence  string `json:"sentence"`
}

// Assemble groups sentences by the segmentation's split indices. The
// segmentation must cover exactly len(sentences) sentences.
func Assemble(sentences []string, seg Segmentation) ([][]string, error) {
	if seg.N != len(sentences) {
		return nil, fmt.Errorf("%w: segmentation covers %d sentences, have %d", ErrMalformedSegmentation, seg.N, len(sentences))
	}
	if err := seg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: splits %v", err, seg.Splits)
	}
	if len(sentences) == 0 {
		return [][]string{}, nil
	}

	out := make([][]string, 0, len(seg.Splits)+1)
	prev := 0
	for _, sp := range seg.Splits {
		out = append(out, sentences[prev:sp:sp])
		prev = sp
	}
	return append(out, sentences[prev:]), nil
}

// Flatten numbers segments from zero and emits one record per sentence in
// document order.
func Flatten(segments [][]string) []Record {
	var out []Record
	for id, seg := range segments {
		for _, s := range seg {
			out = append(out, Record{SegmentID: id, Sentence: s})
		}
	}
	return out
}

// PerSentence is the segmentation that puts every sentence in its own segment.
func PerSentence(n int) Segmentation {
	seg := Segmentation{N: n}
	for i := 1; i < n; i++ {
		seg.Splits = append(seg.Splits, i)
	}
	return seg
}
