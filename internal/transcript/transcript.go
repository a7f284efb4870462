// Package transcript parses press briefing transcripts into metadata and
// speaker passages.
package transcript

import (
	"errors"
	"strings"
)

// ErrNoPassages is returned when a transcript contains no timecoded passage.
var ErrNoPassages = errors.New("no passages found")

// Passage is one uninterrupted contribution of a speaker.
type Passage struct {
	Index     int    `json:"index"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Document is a parsed transcript. Passage indices are positions in Passages.
type Document struct {
	Title    string    `json:"title"`
	Date     string    `json:"date,omitempty"`
	VideoURL string    `json:"video_url,omitempty"`
	PDFURL   string    `json:"pdf_url,omitempty"`
	Speakers []string  `json:"speakers"`
	Passages []Passage `json:"passages"`

	// Text is the full source text used to build the document vocabulary.
	Text string `json:"-"`
}

// Passage returns the passage with the given index.
func (d *Document) Passage(i int) (Passage, bool) {
	if i < 0 || i >= len(d.Passages) {
		return Passage{}, false
	}
	return d.Passages[i], true
}

// VocabularyText is the text every token of the document comes from: the full
// text followed by the title.
func (d *Document) VocabularyText() string {
	return d.Text + "\n" + d.Title
}

// finish numbers passages and collects speakers in order of appearance.
func (d *Document) finish() error {
	if len(d.Passages) == 0 {
		return ErrNoPassages
	}
	seen := make(map[string]bool)
	d.Speakers = make([]string, 0, len(d.Passages))
	for i := range d.Passages {
		d.Passages[i].Index = i
		sp := d.Passages[i].Speaker
		if sp != "" && !seen[sp] {
			seen[sp] = true
			d.Speakers = append(d.Speakers, sp)
		}
	}
	return nil
}

// trimTitleQuotes removes German typographic quotes around a title.
func trimTitleQuotes(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimPrefix(title, "„")
	title = strings.TrimSuffix(title, "“")
	return strings.TrimSpace(title)
}
