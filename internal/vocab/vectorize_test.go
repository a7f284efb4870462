package vocab

import (
	"context"
	"testing"
)

func buildTestVocab(t *testing.T) *Vocabulary {
	t.Helper()
	p := newMapProvider(3, map[string][]float32{
		"Team":    {1, 0, 0},
		"bereit":  {0, 2, 0},
		"Zukunft": {0, 0, 3},
	})
	v, err := Build(context.Background(), p, "Das Team ist bereit für die Zukunft")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return v
}

func TestVectorize(t *testing.T) {
	v := buildTestVocab(t)

	tests := []struct {
		name     string
		sentence string
		want     []float64
	}{
		{"single known token", "Das Team.", []float64{1, 0, 0}},
		{"count weighted", "Team, Team und nochmal Team!", []float64{3, 0, 0}},
		{"mixed", "Das Team ist bereit für die Zukunft.", []float64{1, 2, 3}},
		{"only unknown tokens", "Hallo Welt.", []float64{0, 0, 0}},
		{"empty", "", []float64{0, 0, 0}},
	}

	sentences := make([]string, len(tests))
	for i, tt := range tests {
		sentences[i] = tt.sentence
	}
	got := Vectorize(sentences, v)
	if len(got) != len(sentences) {
		t.Fatalf("Vectorize() returned %d vectors, want %d", len(got), len(sentences))
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(got[i]) != len(tt.want) {
				t.Fatalf("vector length = %d, want %d", len(got[i]), len(tt.want))
			}
			for d := range tt.want {
				if got[i][d] != tt.want[d] {
					t.Errorf("Vectorize()[%d] = %v, want %v", i, got[i], tt.want)
					break
				}
			}
		})
	}
}

func TestVectorize_EmptyVocabulary(t *testing.T) {
	v, err := Build(context.Background(), newMapProvider(5, nil), "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got := Vectorize([]string{"Wir starten heute.", "Das Team ist bereit."}, v)
	for i, vec := range got {
		if len(vec) != 5 {
			t.Errorf("vector %d has length %d, want 5", i, len(vec))
		}
		for _, x := range vec {
			if x != 0 {
				t.Errorf("vector %d = %v, want zeros", i, vec)
				break
			}
		}
	}
}

func TestVectorize_Deterministic(t *testing.T) {
	v := buildTestVocab(t)
	sentences := []string{"Zukunft Team bereit Team", "bereit"}

	first := Vectorize(sentences, v)
	for run := 0; run < 5; run++ {
		again := Vectorize(sentences, v)
		for i := range first {
			for d := range first[i] {
				if first[i][d] != again[i][d] {
					t.Fatalf("run %d: Vectorize() not deterministic", run)
				}
			}
		}
	}
}
