// Package pipeline runs transcripts through sentence splitting, semantic
// segmentation, main concept scoring, and claim detection.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/metrics"
	"github.com/matsen/statements/internal/segment"
	"github.com/matsen/statements/internal/sentence"
	"github.com/matsen/statements/internal/statement"
	"github.com/matsen/statements/internal/transcript"
	"github.com/matsen/statements/internal/vocab"
)

// DefaultSegmentLength is the target number of sentences per segment.
const DefaultSegmentLength = 3

// Fallback reasons recorded on passages that were not optimized.
const (
	FallbackNone         = ""
	FallbackInsufficient = "insufficient_input"
	FallbackPerSentence  = "per_sentence"
)

// Segmenter splits every passage of a document into topical segments.
type Segmenter struct {
	provider embedding.Provider
	length   int
	greedy   bool
	maxSegs  int
	minWords int
	workers  int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithSegmentLength sets the target sentences per segment. A length of one
// puts every sentence in its own segment.
func WithSegmentLength(n int) Option {
	return func(s *Segmenter) {
		s.length = n
	}
}

// WithGreedy selects the approximate segmentation.
func WithGreedy(greedy bool) Option {
	return func(s *Segmenter) {
		s.greedy = greedy
	}
}

// WithMaxSegments caps segments per passage.
func WithMaxSegments(n int) Option {
	return func(s *Segmenter) {
		s.maxSegs = n
	}
}

// WithMinWords drops sentences shorter than n words.
func WithMinWords(n int) Option {
	return func(s *Segmenter) {
		s.minWords = n
	}
}

// WithWorkers bounds the number of passages segmented concurrently.
func WithWorkers(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Segmenter) {
		s.logger = l
	}
}

// WithMetrics records segment counts and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Segmenter) {
		s.metrics = m
	}
}

// NewSegmenter creates a Segmenter that embeds tokens with provider.
func NewSegmenter(provider embedding.Provider, opts ...Option) *Segmenter {
	s := &Segmenter{
		provider: provider,
		length:   DefaultSegmentLength,
		minWords: sentence.DefaultMinWords,
		workers:  4,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PassageResult is the segmentation of one passage. Err is set when the
// passage could not be segmented; Records is then empty.
type PassageResult struct {
	Passage      transcript.Passage   `json:"passage"`
	Sentences    []string             `json:"sentences"`
	Segmentation segment.Segmentation `json:"segmentation"`
	Fallback     string               `json:"fallback,omitempty"`
	Records      []statement.Record   `json:"records"`
	Err          error                `json:"-"`
}

// Result is the segmentation of a document.
type Result struct {
	Document   *transcript.Document `json:"document"`
	Vocabulary *vocab.Vocabulary    `json:"-"`
	Passages   []PassageResult      `json:"passages"`
	// Records holds every passage's records in passage order.
	Records []statement.Record `json:"records"`
}

// Err joins the errors of failed passages.
func (r *Result) Err() error {
	var errs []error
	for _, p := range r.Passages {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("passage %d: %w", p.Passage.Index, p.Err))
		}
	}
	return errors.Join(errs...)
}

// Segments returns the number of segments across all passages.
func (r *Result) Segments() int {
	return statement.CountSegments(r.Records)
}

// SegmentDocument builds the document vocabulary once and segments all
// passages concurrently. Only vocabulary and cancellation errors are
// returned; a failing passage is reported in its PassageResult.
func (s *Segmenter) SegmentDocument(ctx context.Context, doc *transcript.Document) (*Result, error) {
	builder := vocab.NewBuilder(s.provider,
		vocab.WithWorkers(s.workers),
		vocab.WithLogger(s.logger),
		vocab.WithMetrics(s.metrics))
	v, err := builder.Build(ctx, doc.VocabularyText())
	if err != nil {
		return nil, fmt.Errorf("building vocabulary: %w", err)
	}

	results := make([]PassageResult, len(doc.Passages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range doc.Passages {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.SegmentPassage(v, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Document: doc, Vocabulary: v, Passages: results}
	for _, pr := range results {
		res.Records = append(res.Records, pr.Records...)
	}

	s.logger.Info("segmented document",
		zap.String("title", doc.Title),
		zap.Int("passages", len(results)),
		zap.Int("sentences", len(res.Records)),
		zap.Int("segments", res.Segments()),
		zap.Int("vocabulary", v.Len()))
	return res, nil
}

// SegmentPassage splits one passage into sentences and segments them with
// the document vocabulary.
func (s *Segmenter) SegmentPassage(v *vocab.Vocabulary, p transcript.Passage) PassageResult {
	res := PassageResult{Passage: p}
	res.Sentences = sentence.Split(sentence.Sanitize(p.Text), s.minWords)
	n := len(res.Sentences)

	var seg segment.Segmentation
	switch {
	case s.length <= 1:
		seg = segment.PerSentence(n)
		res.Fallback = FallbackPerSentence
	default:
		var err error
		seg, err = segment.Split(vocab.Vectorize(res.Sentences, v), segment.Options{
			SegmentLen:  s.length,
			MaxSegments: s.maxSegs,
			Greedy:      s.greedy,
		})
		if errors.Is(err, segment.ErrInsufficientInput) {
			seg = segment.Single(n)
			res.Fallback = FallbackInsufficient
		} else if err != nil {
			res.Err = err
			return res
		}
	}
	res.Segmentation = seg

	segments, err := segment.Assemble(res.Sentences, seg)
	if err != nil {
		res.Err = err
		return res
	}
	for _, r := range segment.Flatten(segments) {
		res.Records = append(res.Records, statement.Record{
			PassageID: p.Index,
			SegmentID: r.SegmentID,
			Sentence:  r.Sentence,
			Speaker:   p.Speaker,
			Timestamp: p.Timestamp,
		})
	}

	if res.Fallback != FallbackNone {
		s.logger.Debug("passage not optimized",
			zap.Int("passage", p.Index),
			zap.Int("sentences", n),
			zap.String("reason", res.Fallback))
	}
	if s.metrics != nil {
		mode := "optimal"
		if s.greedy {
			mode = "greedy"
		}
		if res.Fallback != FallbackNone {
			s.metrics.FallbacksTotal.WithLabelValues(res.Fallback).Inc()
			mode = res.Fallback
		}
		s.metrics.SegmentsTotal.WithLabelValues(mode).Add(float64(seg.Segments()))
	}
	return res
}
