// Package claims decides whether sentences are check-worthy factual claims.
package claims

import (
	"context"
	"errors"
	"fmt"
)

// ModeratorSpeaker is the speaker whose passages never yield claims.
const ModeratorSpeaker = "Moderator"

// ErrInvalidConfidence reports a confidence threshold outside [0, 1].
var ErrInvalidConfidence = errors.New("confidence threshold must be within [0, 1]")

// Prediction holds class probabilities for one sentence.
type Prediction struct {
	Claim    float64 `json:"claim"`
	NonClaim float64 `json:"non_claim"`
}

// Detector classifies a sentence.
type Detector interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// IsClaim classifies text. With minConfidence zero the more probable class
// wins, ties going to non-claim; otherwise the claim probability must reach
// minConfidence.
func IsClaim(ctx context.Context, d Detector, text string, minConfidence float64) (bool, error) {
	if minConfidence < 0 || minConfidence > 1 {
		return false, fmt.Errorf("%w: %v", ErrInvalidConfidence, minConfidence)
	}
	p, err := d.Classify(ctx, text)
	if err != nil {
		return false, err
	}
	if minConfidence == 0 {
		return p.Claim > p.NonClaim, nil
	}
	return p.Claim >= minConfidence, nil
}

// Always treats every sentence as a claim. It stands in for a classifier
// when claim detection is switched off.
type Always struct{}

// Classify implements Detector.
func (Always) Classify(context.Context, string) (Prediction, error) {
	return Prediction{Claim: 1}, nil
}
