package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/storage"
)

var (
	runsLimit       int
	runsShowJSONL   bool
	runsImportTitle string
	runsImportLen   int
)

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "l", DefaultListLimit, "Maximum number of runs")
	runsSearchCmd.Flags().IntVarP(&runsLimit, "limit", "l", DefaultListLimit, "Maximum number of hits")
	runsShowCmd.Flags().BoolVar(&runsShowJSONL, "jsonl", false, "Print only the records as JSONL")
	runsImportCmd.Flags().StringVar(&runsImportTitle, "title", "", "Title of the imported run")
	runsImportCmd.Flags().IntVarP(&runsImportLen, "length", "n", 0, "Segment length the records were made with")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsSearchCmd, runsDeleteCmd, runsImportCmd)
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored segmentation runs",
	Long: `Manage segmentation runs stored with 'stmt segment --save'.

Run ids may be abbreviated to any unique prefix.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored run with its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over stored sentences and speakers",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsSearch,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var runsImportCmd = &cobra.Command{
	Use:   "import <records.jsonl>",
	Short: "Store records written by 'stmt segment -o' as a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsImport,
}

// RunsListResponse is the response for runs list.
type RunsListResponse struct {
	Runs  []storage.Run `json:"runs"`
	Total int           `json:"total"`
}

// RunsSearchResponse is the response for runs search.
type RunsSearchResponse struct {
	Query string                `json:"query"`
	Hits  []storage.SentenceHit `json:"hits"`
	Total int                   `json:"total"`
}

func runRunsList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	runs, err := db.ListRuns(runsLimit)
	if err != nil {
		exitWithError(ExitError, "listing runs: %v", err)
	}
	if runs == nil {
		runs = []storage.Run{}
	}

	if humanOutput {
		if len(runs) == 0 {
			outputHuman("No runs stored.\n")
			return nil
		}
		for _, r := range runs {
			outputHuman("%s  %s  %-*s  n=%d  %d passages, %d segments\n",
				r.ID[:8], r.CreatedAt.Local().Format("2006-01-02 15:04"),
				TitleMaxLen, truncateString(r.Title, TitleMaxLen),
				r.SegmentLen, r.Passages, r.Segments)
		}
		return nil
	}
	return outputJSON(RunsListResponse{Runs: runs, Total: len(runs)})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	run := mustLoadRun(db, args[0])

	if runsShowJSONL {
		if err := storage.EncodeRecords(os.Stdout, run.Records); err != nil {
			exitWithError(ExitError, "writing records: %v", err)
		}
		return nil
	}
	if humanOutput {
		outputHuman("Run:       %s\n", run.ID)
		outputHuman("Created:   %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		outputHuman("Source:    %s\n", run.Source)
		outputHuman("Title:     %s\n", run.Title)
		outputHuman("Model:     %s\n", run.Model)
		outputHuman("Length:    %d (greedy: %v)\n", run.SegmentLen, run.Greedy)
		outputHuman("Counts:    %d passages, %d sentences, %d segments\n", run.Passages, run.Sentences, run.Segments)
		passage, seg := -1, -1
		for _, r := range run.Records {
			if r.PassageID != passage {
				passage, seg = r.PassageID, -1
				outputHuman("\n[%d] %s %s\n", r.PassageID, r.Speaker, r.Timestamp)
			}
			if r.SegmentID != seg {
				seg = r.SegmentID
				outputHuman("  -- segment %d\n", seg)
			}
			outputHuman("     %s\n", truncateString(r.Sentence, SentenceMaxLen))
		}
		return nil
	}
	return outputJSON(run)
}

func runRunsSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	hits, err := db.SearchSentences(args[0], runsLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}
	if hits == nil {
		hits = []storage.SentenceHit{}
	}

	if humanOutput {
		outputHuman("Found %d sentences\n\n", len(hits))
		for _, h := range hits {
			outputHuman("%s p%d/s%d %s: %s\n", h.RunID[:8], h.PassageID, h.SegmentID, h.Speaker,
				truncateString(h.Sentence, SentenceMaxLen))
		}
		return nil
	}
	return outputJSON(RunsSearchResponse{Query: args[0], Hits: hits, Total: len(hits)})
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	run := mustLoadRun(db, args[0])
	if err := db.DeleteRun(run.ID); err != nil {
		exitWithError(ExitError, "deleting run: %v", err)
	}

	if humanOutput {
		outputHuman("Deleted run %s\n", run.ID)
		return nil
	}
	return outputJSON(StatusResponse{Status: "deleted", ID: run.ID})
}

func runRunsImport(cmd *cobra.Command, args []string) error {
	records, err := storage.ReadRecords(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading records: %v", err)
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	passages := 0
	for _, r := range records {
		if r.PassageID+1 > passages {
			passages = r.PassageID + 1
		}
	}
	run := &storage.Run{
		Source:     args[0],
		Title:      runsImportTitle,
		Model:      "imported",
		SegmentLen: runsImportLen,
		Passages:   passages,
		Records:    records,
	}
	if err := db.SaveRun(run); err != nil {
		exitWithError(ExitError, "saving run: %v", err)
	}

	if humanOutput {
		outputHuman("Imported %d records as run %s\n", len(records), run.ID)
		return nil
	}
	return outputJSON(StatusResponse{Status: "imported", ID: run.ID, Path: args[0]})
}

// mustLoadRun loads a run by id or prefix, exits on error.
func mustLoadRun(db *storage.DB, id string) *storage.Run {
	run, err := db.LoadRun(id)
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		exitWithError(ExitNotFound, "run %s not found", id)
	case errors.Is(err, storage.ErrAmbiguousRunID):
		exitWithError(ExitError, "run id %s is ambiguous, use more characters", id)
	case err != nil:
		exitWithError(ExitError, "loading run: %v", err)
	}
	return run
}
