package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/claims"
	"github.com/matsen/statements/internal/clipboard"
	"github.com/matsen/statements/internal/config"
	"github.com/matsen/statements/internal/pdf"
	"github.com/matsen/statements/internal/pipeline"
	"github.com/matsen/statements/internal/report"
	"github.com/matsen/statements/internal/statement"
	"github.com/matsen/statements/internal/wikify"
)

var (
	annotateOpts          segmentFlags
	annotateConcept       string
	annotateThreshold     float64
	annotateIntro         string
	annotateMinConfidence float64
	annotateNoClaims      bool
	annotateFormat        string
	annotateOutput        string
	annotateOpen          bool
	annotateCopy          bool
)

func init() {
	addSegmentFlags(annotateCmd, &annotateOpts)
	annotateCmd.Flags().StringVarP(&annotateConcept, "concept", "m", "",
		"Main concept filter: embedding, wikify_title, or wikify_intro (default none)")
	annotateCmd.Flags().Float64VarP(&annotateThreshold, "threshold", "t", 0, "Main concept score a sentence must exceed")
	annotateCmd.Flags().StringVar(&annotateIntro, "intro", "", "Introduction text file for wikify_intro")
	annotateCmd.Flags().Float64Var(&annotateMinConfidence, "min-confidence", 0,
		"Minimum claim probability (default: more probable class wins)")
	annotateCmd.Flags().BoolVar(&annotateNoClaims, "no-claims", false, "Treat every relevant sentence as a claim")
	annotateCmd.Flags().StringVarP(&annotateFormat, "format", "f", "", "Report format: json, markdown, html, pdf (default from --output)")
	annotateCmd.Flags().StringVarP(&annotateOutput, "output", "o", "", "Write the report to this file")
	annotateCmd.Flags().BoolVar(&annotateOpen, "open", false, "Open the PDF report in the configured viewer")
	annotateCmd.Flags().BoolVar(&annotateCopy, "copy", false, "Copy the statements to the clipboard")
	rootCmd.AddCommand(annotateCmd)
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <transcript>",
	Short: "Highlight claim statements in a transcript",
	Long: `Segment a transcript, keep sentences related to its main concept, detect
claims, and render the transcript with highlighted statements.

With a segment length above one, every segment that contains a claim is
highlighted as a whole, alternating yellow and red. With length one, claim
sentences are highlighted in green. Moderator passages never yield claims.

Main concept modes:
  embedding     similarity of sentence and title vectors
  wikify_title  Wikipedia articles shared with the title (TagMe/Dandelion)
  wikify_intro  Wikipedia articles shared with an introduction text (--intro)

Examples:
  stmt annotate briefing.pdf -n 3 -o annotated.pdf --open
  stmt annotate briefing.pdf -m embedding -t 0.3 -f markdown
  stmt annotate briefing.md -m wikify_intro --intro intro.txt -o report.html
  stmt annotate briefing.pdf --no-claims --copy --human`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

// AnnotateResponse is the JSON response for the annotate command.
type AnnotateResponse struct {
	Title       string                 `json:"title"`
	Sentences   int                    `json:"sentences"`
	Segments    int                    `json:"segments"`
	Relevant    int                    `json:"relevant"`
	Claims      int                    `json:"claims"`
	Statements  []statement.Statement  `json:"statements"`
	Annotations []statement.Annotation `json:"annotations,omitempty"`
	Path        string                 `json:"path,omitempty"`
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	format := mustReportFormat()
	if format == report.FormatPDF && annotateOutput == "" {
		exitWithError(ExitError, "pdf output needs --output")
	}

	cfg := mustLoadConfig()
	doc := mustLoadDocument(path)

	db := openCache(cfg)
	if db != nil {
		defer db.Close()
	}
	provider := mustBuildProvider(ctx, cfg, db)

	opts := []pipeline.AnnotatorOption{pipeline.WithAnnotatorLogger(log)}
	if annotateConcept != "" {
		opts = append(opts, pipeline.WithConcept(mustConcept(ctx, cfg), annotateThreshold))
	}
	if !annotateNoClaims {
		opts = append(opts, pipeline.WithDetector(mustDetector(cfg), annotateMinConfidence))
	}

	annotator := pipeline.NewAnnotator(newSegmenter(cfg, provider, annotateOpts), opts...)
	out, err := annotator.Run(ctx, doc)
	if err != nil {
		exitWithError(ExitError, "annotating: %v", err)
	}
	if err := out.Err(); err != nil {
		log.Sugar().Warnf("some passages could not be segmented: %v", err)
	}

	rep := out.Report()
	if annotateCopy {
		if err := clipboard.Copy(report.StatementsText(rep)); err != nil {
			log.Sugar().Warnf("copying statements: %v", err)
		}
	}
	resp := AnnotateResponse{
		Title:      doc.Title,
		Sentences:  len(out.Annotations),
		Segments:   out.Segments(),
		Statements: out.Statements,
	}
	for _, a := range out.Annotations {
		if a.Relevant {
			resp.Relevant++
		}
		if a.Claim {
			resp.Claims++
		}
	}

	if annotateOutput != "" {
		mustWriteReport(rep, format, annotateOutput)
		resp.Path = annotateOutput
		if annotateOpen {
			if format != report.FormatPDF {
				exitWithError(ExitError, "--open needs a pdf report")
			}
			if err := pdf.NewOpener(cfg.PDFReader).Open(annotateOutput); err != nil {
				exitWithError(ExitError, "opening report: %v", err)
			}
		}
		if humanOutput {
			outputHuman("%d statements from %d claims in %d sentences\n", len(resp.Statements), resp.Claims, resp.Sentences)
			outputHuman("Wrote %s\n", annotateOutput)
			return nil
		}
		return outputJSON(resp)
	}

	switch format {
	case report.FormatMarkdown, report.FormatHTML:
		if err := report.Render(os.Stdout, rep, format); err != nil {
			exitWithError(ExitError, "rendering report: %v", err)
		}
		return nil
	}

	if humanOutput {
		printStatementsHuman(resp)
		return nil
	}
	resp.Annotations = out.Annotations
	return outputJSON(resp)
}

// mustReportFormat resolves --format, falling back to the output extension.
func mustReportFormat() report.Format {
	if annotateFormat == "" {
		if annotateOutput != "" {
			return report.FormatFromPath(annotateOutput)
		}
		return report.FormatJSON
	}
	f, err := report.ParseFormat(annotateFormat)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return f
}

// mustConcept builds the main concept scorer for --concept.
func mustConcept(ctx context.Context, cfg *config.Config) pipeline.Concept {
	if !slices.Contains(pipeline.ValidConceptModes, annotateConcept) {
		exitWithError(ExitError, "invalid concept %q (valid: %s)", annotateConcept, strings.Join(pipeline.ValidConceptModes, ", "))
	}
	if annotateConcept == pipeline.ConceptEmbedding {
		return pipeline.TitleConcept()
	}

	client, err := wikify.NewClient(wikify.Service(cfg.Wikify.Service), cfg.WikifyToken(),
		wikify.WithLanguage(cfg.Wikify.Language),
		wikify.WithMinScore(cfg.Wikify.MinScore),
		wikify.WithRateLimit(rateOrDefault(cfg.Wikify.RateLimit, wikify.DefaultRateLimit)))
	if err != nil {
		exitWithError(ExitConfigError, "%v (set %sWIKIFY_%s_TOKEN or wikify.%s_token)",
			err, config.EnvPrefix, strings.ToUpper(cfg.Wikify.Service), cfg.Wikify.Service)
	}

	if annotateConcept == pipeline.ConceptWikifyTitle {
		return pipeline.ArticleConcept(client, "")
	}
	if annotateIntro == "" {
		exitWithError(ExitError, "%s needs --intro", pipeline.ConceptWikifyIntro)
	}
	intro, err := os.ReadFile(annotateIntro)
	if err != nil {
		exitWithError(ExitDataError, "reading intro: %v", err)
	}
	if strings.TrimSpace(string(intro)) == "" {
		exitWithError(ExitDataError, "intro file %s is empty", annotateIntro)
	}
	return pipeline.ArticleConcept(client, string(intro))
}

// mustDetector builds the claim classifier client.
func mustDetector(cfg *config.Config) claims.Detector {
	opts := []claims.Option{
		claims.WithRateLimit(rateOrDefault(cfg.Claims.RateLimit, claims.DefaultRateLimit)),
	}
	if cfg.Claims.Token != "" {
		opts = append(opts, claims.WithToken(cfg.Claims.Token))
	}
	if cfg.Claims.Label != "" {
		opts = append(opts, claims.WithClaimLabel(cfg.Claims.Label))
	}
	d, err := claims.NewHTTPDetector(cfg.Claims.URL, opts...)
	if err != nil {
		exitWithError(ExitConfigError, "%v (set claims.url or pass --no-claims)", err)
	}
	return d
}

func rateOrDefault(r, def float64) float64 {
	if r > 0 {
		return r
	}
	return def
}

// mustWriteReport renders rep into path.
func mustWriteReport(rep *report.Report, format report.Format, path string) {
	f, err := os.Create(path)
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", path, err)
	}
	if err := report.Render(f, rep, format); err != nil {
		f.Close()
		exitWithError(ExitError, "rendering report: %v", err)
	}
	if err := f.Close(); err != nil {
		exitWithError(ExitError, "writing %s: %v", path, err)
	}
}

// printStatementsHuman prints each statement with its speaker.
func printStatementsHuman(resp AnnotateResponse) {
	outputHuman("%s\n", resp.Title)
	outputHuman("%d sentences, %d segments, %d relevant, %d claims\n\n",
		resp.Sentences, resp.Segments, resp.Relevant, resp.Claims)
	for i, st := range resp.Statements {
		outputHuman("%d. [%s] %s %s\n", i+1, st.Color, st.Speaker, st.Timestamp)
		outputHuman("   %s\n\n", wrapText(st.Text(), TextWrapWidth, "   "))
	}
	if len(resp.Statements) == 0 {
		fmt.Println("No statements found.")
	}
}
