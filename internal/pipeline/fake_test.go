package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/matsen/statements/internal/claims"
	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/transcript"
)

// topicProvider embeds vaccine words along the first axis and weather words
// along the second. Every other token, the sentinel included, is zero.
type topicProvider struct {
	fail bool
}

var topicVectors = map[string][]float32{
	"Impfstoff": {1, 0},
	"Studie":    {1, 0},
	"Wirkung":   {1, 0},
	"wirkt":     {1, 0},
	"Sommer":    {0, 1},
	"Hitze":     {0, 1},
	"Klima":     {0, 1},
	"heiß":      {0, 1},
}

func (p topicProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	if p.fail {
		return embedding.Embedding{}, errors.New("model unavailable")
	}
	if v, ok := topicVectors[text]; ok {
		return embedding.Embedding{Vector: v}, nil
	}
	return embedding.Embedding{Vector: []float32{0, 0}}, nil
}

func (topicProvider) ModelName() string { return "topics" }
func (topicProvider) Dimensions() int   { return 2 }

// germanPassage has three sentences about vaccines followed by three about
// the weather.
const germanPassage = "Der Impfstoff wirkt sehr gut. Die Studie zum Impfstoff zeigt Wirkung. " +
	"Eine weitere Studie mit Impfstoff folgt. Der Sommer war sehr heiß. " +
	"Die Hitze im Sommer bleibt lange. Das Klima und die Hitze ändern sich."

var germanSentences = []string{
	"Der Impfstoff wirkt sehr gut.",
	"Die Studie zum Impfstoff zeigt Wirkung.",
	"Eine weitere Studie mit Impfstoff folgt.",
	"Der Sommer war sehr heiß.",
	"Die Hitze im Sommer bleibt lange.",
	"Das Klima und die Hitze ändern sich.",
}

// newDocument builds a document whose full text is the concatenation of
// the passage texts.
func newDocument(title string, passages ...transcript.Passage) *transcript.Document {
	doc := &transcript.Document{Title: title, Passages: passages}
	var texts []string
	for i := range doc.Passages {
		doc.Passages[i].Index = i
		texts = append(texts, doc.Passages[i].Text)
	}
	doc.Text = strings.Join(texts, "\n")
	return doc
}

// tableDetector answers from a sentence table; unknown sentences are not
// claims.
type tableDetector struct {
	claims map[string]bool
	err    error
}

func (d tableDetector) Classify(_ context.Context, text string) (claims.Prediction, error) {
	if d.err != nil {
		return claims.Prediction{}, d.err
	}
	if d.claims[text] {
		return claims.Prediction{Claim: 0.9, NonClaim: 0.1}, nil
	}
	return claims.Prediction{Claim: 0.2, NonClaim: 0.8}, nil
}
