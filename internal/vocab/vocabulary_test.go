package vocab

import (
	"context"
	"reflect"
	"testing"

	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/metrics"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"sentence", "Wir freuen uns auf die Zukunft.", []string{"Wir", "freuen", "uns", "auf", "die", "Zukunft"}},
		{"hyphen and apostrophe", "Covid-19 geht's weiter", []string{"Covid-19", "geht's", "weiter"}},
		{"punctuation only", "... !? –", nil},
		{"digits", "Phase 2 beginnt 2021", []string{"Phase", "2", "beginnt", "2021"}},
		{"decomposed umlaut", "la\u0308uft", []string{"l\u00e4uft"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct("Das Team ist bereit. Das Team!")
	want := []string{"Das", "Team", "bereit", "ist"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Distinct() = %q, want %q", got, want)
	}
}

func TestBuild_ExcludesSentinelTokens(t *testing.T) {
	p := newMapProvider(2, map[string][]float32{
		"Projekt": {1, 0},
		"Team":    {0, 1},
	})

	v, err := Build(context.Background(), p, "Das Projekt und das Team.")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := v.Tokens(); !reflect.DeepEqual(got, []string{"Projekt", "Team"}) {
		t.Errorf("Tokens() = %q, want [Projekt Team]", got)
	}
	for _, tok := range []string{"Das", "und", "das", embedding.SentinelToken} {
		if v.Contains(tok) {
			t.Errorf("vocabulary contains sentinel-equal token %q", tok)
		}
	}
	if v.Excluded() != 3 {
		t.Errorf("Excluded() = %d, want 3", v.Excluded())
	}
	if v.Dimensions() != 2 {
		t.Errorf("Dimensions() = %d, want 2", v.Dimensions())
	}
}

func TestBuild_NonZeroSentinel(t *testing.T) {
	// A model may answer unknown tokens with a non-zero vector; exclusion is by equality.
	p := newMapProvider(2, map[string][]float32{"gut": {0.5, 0.5}})
	p.unknown = []float32{0.1, 0.2}

	v, err := Build(context.Background(), p, "gut oder schlecht")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if v.Len() != 1 || !v.Contains("gut") {
		t.Errorf("Tokens() = %q, want [gut]", v.Tokens())
	}
}

func TestBuild_EmptyText(t *testing.T) {
	p := newMapProvider(4, nil)

	v, err := Build(context.Background(), p, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if v.Len() != 0 {
		t.Errorf("Len() = %d, want 0", v.Len())
	}
	if v.Dimensions() != 4 {
		t.Errorf("Dimensions() = %d, want provider dimensions 4", v.Dimensions())
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times for empty text, want 0", p.calls)
	}
}

func TestBuild_BatchAndSingleAgree(t *testing.T) {
	table := map[string][]float32{
		"Finanzierung": {1, 2},
		"gesichert":    {3, 4},
		"Morgen":       {5, 6},
	}
	text := "Die Finanzierung ist gesichert. Morgen!"

	single, err := NewBuilder(newMapProvider(2, table), WithWorkers(2)).Build(context.Background(), text)
	if err != nil {
		t.Fatalf("Build(single) error = %v", err)
	}

	bp := &batchMapProvider{mapProvider: newMapProvider(2, table)}
	batched, err := Build(context.Background(), bp, text)
	if err != nil {
		t.Fatalf("Build(batch) error = %v", err)
	}
	if bp.batches != 1 {
		t.Errorf("batch calls = %d, want 1", bp.batches)
	}

	if !reflect.DeepEqual(single.Tokens(), batched.Tokens()) {
		t.Errorf("tokens differ: %q vs %q", single.Tokens(), batched.Tokens())
	}
	for _, tok := range single.Tokens() {
		a, _ := single.Vector(tok)
		b, _ := batched.Vector(tok)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Vector(%q) differs: %v vs %v", tok, a, b)
		}
	}
}

func TestBuild_ProviderError(t *testing.T) {
	p := newMapProvider(2, nil)
	p.fail = true

	if _, err := Build(context.Background(), p, "irgendein Text"); err == nil {
		t.Error("Build() expected error, got nil")
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	p := newMapProvider(2, map[string][]float32{"kurz": {1}})

	if _, err := Build(context.Background(), p, "kurz"); err == nil {
		t.Error("Build() expected dimension error, got nil")
	}
}

func TestBuild_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	p := newMapProvider(2, map[string][]float32{"Team": {1, 1}})

	if _, err := NewBuilder(p, WithMetrics(m)).Build(context.Background(), "Das Team"); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "stmt_vocabulary_tokens" {
			found = true
		}
	}
	if !found {
		t.Error("vocabulary histogram not recorded")
	}
}
