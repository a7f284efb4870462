package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/statements/internal/claims"
	"github.com/matsen/statements/internal/report"
	"github.com/matsen/statements/internal/semantic"
	"github.com/matsen/statements/internal/statement"
	"github.com/matsen/statements/internal/transcript"
	"github.com/matsen/statements/internal/vocab"
	"github.com/matsen/statements/internal/wikify"
)

// Main concept modes.
const (
	ConceptEmbedding   = "embedding"
	ConceptWikifyTitle = "wikify_title"
	ConceptWikifyIntro = "wikify_intro"
)

// ValidConceptModes lists the supported main concept modes.
var ValidConceptModes = []string{ConceptEmbedding, ConceptWikifyTitle, ConceptWikifyIntro}

// Concept builds the main concept scorer of a document once its vocabulary
// is known.
type Concept func(ctx context.Context, doc *transcript.Document, v *vocab.Vocabulary) (semantic.Scorer, error)

// TitleConcept scores sentences by embedding similarity to the title.
func TitleConcept() Concept {
	return func(_ context.Context, doc *transcript.Document, v *vocab.Vocabulary) (semantic.Scorer, error) {
		return semantic.TitleScorer{Vocabulary: v, Title: doc.Title}, nil
	}
}

// ArticleConcept scores sentences by the Wikipedia articles they share with
// reference. An empty reference uses the document title.
func ArticleConcept(c *wikify.Client, reference string) Concept {
	return func(ctx context.Context, doc *transcript.Document, _ *vocab.Vocabulary) (semantic.Scorer, error) {
		ref := reference
		if ref == "" {
			ref = doc.Title
		}
		s, err := wikify.NewArticleScorer(ctx, c, ref)
		if err != nil {
			return nil, fmt.Errorf("annotating reference text: %w", err)
		}
		return s, nil
	}
}

// Annotator scores segmented sentences against the main concept, detects
// claims in the relevant ones, and regroups claims into statements.
type Annotator struct {
	segmenter     *Segmenter
	concept       Concept
	threshold     float64
	detector      claims.Detector
	minConfidence float64
	workers       int
	logger        *zap.Logger
}

// AnnotatorOption configures an Annotator.
type AnnotatorOption func(*Annotator)

// WithConcept filters sentences whose main concept score is not above
// threshold. Without a concept every sentence is relevant.
func WithConcept(c Concept, threshold float64) AnnotatorOption {
	return func(a *Annotator) {
		a.concept = c
		a.threshold = threshold
	}
}

// WithDetector sets the claim classifier. Without one every relevant
// sentence counts as a claim.
func WithDetector(d claims.Detector, minConfidence float64) AnnotatorOption {
	return func(a *Annotator) {
		a.detector = d
		a.minConfidence = minConfidence
	}
}

// WithAnnotatorLogger sets the logger.
func WithAnnotatorLogger(l *zap.Logger) AnnotatorOption {
	return func(a *Annotator) {
		a.logger = l
	}
}

// NewAnnotator creates an Annotator on top of segmenter.
func NewAnnotator(segmenter *Segmenter, opts ...AnnotatorOption) *Annotator {
	a := &Annotator{
		segmenter: segmenter,
		detector:  claims.Always{},
		workers:   segmenter.workers,
		logger:    segmenter.logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotated is the outcome of an annotation run.
type Annotated struct {
	*Result
	Annotations []statement.Annotation `json:"annotations"`
	Statements  []statement.Statement  `json:"statements"`

	segmentLength int
}

// Report lays out the run for rendering.
func (a *Annotated) Report() *report.Report {
	return report.New(a.Document, a.Annotations, a.segmentLength)
}

// Run segments doc and annotates every sentence.
func (a *Annotator) Run(ctx context.Context, doc *transcript.Document) (*Annotated, error) {
	res, err := a.segmenter.SegmentDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	anns := make([]statement.Annotation, len(res.Records))
	sentences := make([]string, len(res.Records))
	for i, r := range res.Records {
		anns[i] = statement.Annotation{Record: r, Relevant: true}
		sentences[i] = r.Sentence
	}

	if a.concept != nil && len(sentences) > 0 {
		scorer, err := a.concept(ctx, doc, res.Vocabulary)
		if err != nil {
			return nil, err
		}
		scores, err := scorer.Score(ctx, sentences)
		if err != nil {
			return nil, fmt.Errorf("scoring main concept: %w", err)
		}
		if len(scores) != len(sentences) {
			return nil, fmt.Errorf("scorer returned %d scores for %d sentences", len(scores), len(sentences))
		}
		for i := range anns {
			anns[i].Relevant = false
		}
		for _, i := range semantic.Above(scores, a.threshold) {
			anns[i].Relevant = true
		}
		for i, s := range scores {
			anns[i].Score = s
		}
	}

	if err := a.detectClaims(ctx, anns); err != nil {
		return nil, err
	}

	out := &Annotated{
		Result:        res,
		Annotations:   anns,
		Statements:    report.Statements(anns, a.segmenter.length),
		segmentLength: a.segmenter.length,
	}

	a.logger.Info("annotated document",
		zap.String("title", doc.Title),
		zap.Int("sentences", len(anns)),
		zap.Int("relevant", countIf(anns, func(x statement.Annotation) bool { return x.Relevant })),
		zap.Int("claims", countIf(anns, func(x statement.Annotation) bool { return x.Claim })),
		zap.Int("statements", len(out.Statements)))
	return out, nil
}

// detectClaims classifies relevant sentences outside moderator passages.
func (a *Annotator) detectClaims(ctx context.Context, anns []statement.Annotation) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range anns {
		if !anns[i].Relevant || anns[i].Speaker == claims.ModeratorSpeaker {
			continue
		}
		i := i
		g.Go(func() error {
			ok, err := claims.IsClaim(gctx, a.detector, anns[i].Sentence, a.minConfidence)
			if err != nil {
				return fmt.Errorf("classifying passage %d sentence %q: %w", anns[i].PassageID, anns[i].Sentence, err)
			}
			anns[i].Claim = ok
			return nil
		})
	}
	return g.Wait()
}

func countIf(anns []statement.Annotation, pred func(statement.Annotation) bool) int {
	n := 0
	for _, a := range anns {
		if pred(a) {
			n++
		}
	}
	return n
}
