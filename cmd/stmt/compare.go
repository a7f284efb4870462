package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/segment"
	"github.com/matsen/statements/internal/sentence"
	"github.com/matsen/statements/internal/vocab"
)

var compareOpts segmentFlags

func init() {
	addSegmentFlags(compareCmd, &compareOpts)
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <transcript>",
	Short: "Compare optimal and greedy segmentation per passage",
	Long: `Run the exact and the greedy segmentation on every passage and report
their objective values, the cost ratio, and the segment lengths.

Passages too short for the segment length are listed as skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

// PassageComparison is one passage in the compare response.
type PassageComparison struct {
	Passage int                 `json:"passage"`
	Speaker string              `json:"speaker,omitempty"`
	Skipped string              `json:"skipped,omitempty"`
	Result  *segment.Comparison `json:"result,omitempty"`
}

// CompareResponse is the response for the compare command.
type CompareResponse struct {
	Title      string              `json:"title"`
	Length     int                 `json:"length"`
	Passages   []PassageComparison `json:"passages"`
	Compared   int                 `json:"compared"`
	Mismatched int                 `json:"mismatched"` // Passages where greedy is worse
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := mustLoadConfig()
	doc := mustLoadDocument(args[0])
	db := openCache(cfg)
	if db != nil {
		defer db.Close()
	}
	provider := mustBuildProvider(ctx, cfg, db)

	v, err := vocab.NewBuilder(provider, vocab.WithLogger(log), vocab.WithMetrics(registry)).
		Build(ctx, doc.VocabularyText())
	if err != nil {
		exitWithError(ExitError, "building vocabulary: %v", err)
	}

	length := segmentLength(cfg, compareOpts)
	minWords := cfg.Segment.MinWords
	if compareOpts.minWords > 0 {
		minWords = compareOpts.minWords
	}

	resp := CompareResponse{Title: doc.Title, Length: length}
	for _, p := range doc.Passages {
		pc := PassageComparison{Passage: p.Index, Speaker: p.Speaker}
		sents := sentence.Split(sentence.Sanitize(p.Text), minWords)
		cmp, err := segment.Compare(vocab.Vectorize(sents, v), segment.Options{
			SegmentLen:  length,
			MaxSegments: cfg.Segment.MaxSegments,
		})
		switch {
		case errors.Is(err, segment.ErrInsufficientInput):
			pc.Skipped = "insufficient input"
		case err != nil:
			exitWithError(ExitError, "passage %d: %v", p.Index, err)
		default:
			pc.Result = &cmp
			resp.Compared++
			if cmp.Ratio < 1 {
				resp.Mismatched++
			}
		}
		resp.Passages = append(resp.Passages, pc)
	}

	if humanOutput {
		outputHuman("%s (length %d)\n\n", resp.Title, resp.Length)
		for _, pc := range resp.Passages {
			if pc.Result == nil {
				outputHuman("[%d] %s: skipped (%s)\n", pc.Passage, pc.Speaker, pc.Skipped)
				continue
			}
			r := pc.Result
			outputHuman("[%d] %s: %d sentences, penalty %.4f\n", pc.Passage, pc.Speaker, r.Sentences, r.Penalty)
			outputHuman("     optimal %.4f %v\n", r.OptimalCost, r.OptimalLengths)
			outputHuman("     greedy  %.4f %v (ratio %.3f)\n", r.GreedyCost, r.GreedyLengths, r.Ratio)
		}
		outputHuman("\n%d compared, greedy worse on %d\n", resp.Compared, resp.Mismatched)
		return nil
	}
	return outputJSON(resp)
}
