package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/sentence"
)

var (
	parseSentences bool
	parseMinWords  int
)

func init() {
	parseCmd.Flags().BoolVar(&parseSentences, "sentences", false, "Include the sentences of every passage")
	parseCmd.Flags().IntVar(&parseMinWords, "min-words", sentence.DefaultMinWords, "Drop sentences with fewer words")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <transcript>",
	Short: "Parse a transcript into metadata and passages",
	Long: `Parse a transcript (PDF, markdown, or extracted text) and print its title,
date, links, speakers, and passages. No embeddings are needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// ParsedPassage is a passage in the parse response.
type ParsedPassage struct {
	Index     int      `json:"index"`
	Speaker   string   `json:"speaker"`
	Timestamp string   `json:"timestamp"`
	Text      string   `json:"text"`
	Sentences []string `json:"sentences,omitempty"`
}

// ParseResponse is the response for the parse command.
type ParseResponse struct {
	Title    string          `json:"title"`
	Date     string          `json:"date,omitempty"`
	VideoURL string          `json:"video_url,omitempty"`
	PDFURL   string          `json:"pdf_url,omitempty"`
	Speakers []string        `json:"speakers"`
	Passages []ParsedPassage `json:"passages"`
}

func runParse(cmd *cobra.Command, args []string) error {
	doc := mustLoadDocument(args[0])

	resp := ParseResponse{
		Title:    doc.Title,
		Date:     doc.Date,
		VideoURL: doc.VideoURL,
		PDFURL:   doc.PDFURL,
		Speakers: doc.Speakers,
	}
	for _, p := range doc.Passages {
		pp := ParsedPassage{Index: p.Index, Speaker: p.Speaker, Timestamp: p.Timestamp, Text: p.Text}
		if parseSentences {
			pp.Sentences = sentence.Split(sentence.Sanitize(p.Text), parseMinWords)
		}
		resp.Passages = append(resp.Passages, pp)
	}

	if humanOutput {
		outputHuman("%s\n", resp.Title)
		if resp.Date != "" {
			outputHuman("Date:     %s\n", resp.Date)
		}
		if resp.VideoURL != "" {
			outputHuman("Video:    %s\n", resp.VideoURL)
		}
		if resp.PDFURL != "" {
			outputHuman("PDF:      %s\n", resp.PDFURL)
		}
		outputHuman("Speakers: %d, passages: %d\n", len(resp.Speakers), len(resp.Passages))
		for _, p := range resp.Passages {
			outputHuman("\n[%d] %s %s\n", p.Index, p.Speaker, p.Timestamp)
			if parseSentences {
				for _, s := range p.Sentences {
					outputHuman("  - %s\n", truncateString(s, SentenceMaxLen))
				}
				continue
			}
			outputHuman("  %s\n", wrapText(p.Text, TextWrapWidth, "  "))
		}
		return nil
	}
	return outputJSON(resp)
}
