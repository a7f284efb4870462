package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/statements/internal/pipeline"
	"github.com/matsen/statements/internal/statement"
	"github.com/matsen/statements/internal/storage"
)

var (
	segmentOpts   segmentFlags
	segmentOutput string
	segmentSave   bool
)

func init() {
	addSegmentFlags(segmentCmd, &segmentOpts)
	segmentCmd.Flags().StringVarP(&segmentOutput, "output", "o", "", "Write records as JSONL to this file")
	segmentCmd.Flags().BoolVar(&segmentSave, "save", false, "Store the run in the database")
	rootCmd.AddCommand(segmentCmd)
}

// addSegmentFlags registers the segmentation flags on cmd.
func addSegmentFlags(cmd *cobra.Command, f *segmentFlags) {
	cmd.Flags().IntVarP(&f.length, "length", "n", 0, "Target sentences per segment (default from config)")
	cmd.Flags().IntVar(&f.minWords, "min-words", 0, "Drop sentences with fewer words (default from config)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Passages segmented in parallel (default from config)")
	cmd.Flags().BoolVar(&f.greedy, "greedy", false, "Use the greedy approximation instead of the exact optimum")
}

var segmentCmd = &cobra.Command{
	Use:   "segment <transcript>",
	Short: "Split transcript passages into topical segments",
	Long: `Split every passage of a transcript into topically coherent segments.

Each sentence is emitted as a record with its passage id and a segment id
that counts from 0 within the passage.

Examples:
  stmt segment briefing.pdf
  stmt segment briefing.pdf --length 5 --human
  stmt segment briefing.md -o records.jsonl --save`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

// SegmentResponse is the response for the segment command.
type SegmentResponse struct {
	Title     string             `json:"title"`
	Model     string             `json:"model"`
	Passages  int                `json:"passages"`
	Sentences int                `json:"sentences"`
	Segments  int                `json:"segments"`
	RunID     string             `json:"run_id,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
	Records   []statement.Record `json:"records"`
}

func runSegment(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	cfg := mustLoadConfig()
	doc := mustLoadDocument(path)

	var db *storage.DB
	if segmentSave || !noCache {
		db = mustOpenDatabase(cfg)
		defer db.Close()
	}
	cache := db
	if noCache {
		cache = nil
	}
	provider := mustBuildProvider(ctx, cfg, cache)

	start := time.Now()
	res, err := newSegmenter(cfg, provider, segmentOpts).SegmentDocument(ctx, doc)
	if err != nil {
		exitWithError(ExitError, "segmenting: %v", err)
	}

	resp := SegmentResponse{
		Title:     doc.Title,
		Model:     provider.ModelName(),
		Passages:  len(doc.Passages),
		Sentences: len(res.Records),
		Segments:  res.Segments(),
		Records:   res.Records,
	}
	for _, p := range res.Passages {
		if p.Err != nil {
			log.Warn("passage failed", zap.Int("passage", p.Passage.Index), zap.Error(p.Err))
			resp.Errors = append(resp.Errors, fmt.Sprintf("passage %d: %v", p.Passage.Index, p.Err))
		}
	}

	if segmentOutput != "" {
		if err := storage.WriteRecords(segmentOutput, res.Records); err != nil {
			exitWithError(ExitError, "writing records: %v", err)
		}
	}

	if segmentSave {
		run := &storage.Run{
			Source:     path,
			Title:      doc.Title,
			Date:       doc.Date,
			Model:      provider.ModelName(),
			SegmentLen: segmentLength(cfg, segmentOpts),
			Greedy:     segmentOpts.greedy,
			Passages:   len(doc.Passages),
			Records:    res.Records,
		}
		if err := db.SaveRun(run); err != nil {
			exitWithError(ExitError, "saving run: %v", err)
		}
		resp.RunID = run.ID
	}

	if humanOutput {
		printSegmentsHuman(res, resp, time.Since(start))
		return nil
	}
	return outputJSON(resp)
}

// printSegmentsHuman prints passages with their segments.
func printSegmentsHuman(res *pipeline.Result, resp SegmentResponse, elapsed time.Duration) {
	outputHuman("%s\n", resp.Title)
	outputHuman("%d passages, %d sentences, %d segments (model %s, %s)\n",
		resp.Passages, resp.Sentences, resp.Segments, resp.Model, formatDuration(elapsed))
	if resp.RunID != "" {
		outputHuman("Saved run %s\n", resp.RunID)
	}

	for _, p := range res.Passages {
		outputHuman("\n[%d] %s %s\n", p.Passage.Index, p.Passage.Speaker, p.Passage.Timestamp)
		if p.Err != nil {
			outputHuman("  error: %v\n", p.Err)
			continue
		}
		seg := -1
		for _, r := range p.Records {
			if r.SegmentID != seg {
				seg = r.SegmentID
				outputHuman("  -- segment %d\n", seg)
			}
			outputHuman("     %s\n", truncateString(r.Sentence, SentenceMaxLen))
		}
	}
}
