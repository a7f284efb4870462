// Package report regroups annotated sentences into highlighted statements
// and renders annotated transcripts.
package report

import (
	"github.com/matsen/statements/internal/statement"
	"github.com/matsen/statements/internal/transcript"
)

// Statements groups claim sentences into statements. With a segment length
// above one, every segment holding a claim becomes a statement in full and
// statements alternate between yellow and red. Otherwise each claim
// sentence is its own green statement. Annotations must be in document order.
func Statements(anns []statement.Annotation, length int) []statement.Statement {
	var out []statement.Statement
	if length <= 1 {
		for _, a := range anns {
			if !a.Claim {
				continue
			}
			out = append(out, statement.Statement{
				PassageID: a.PassageID,
				SegmentID: a.SegmentID,
				Speaker:   a.Speaker,
				Timestamp: a.Timestamp,
				Sentences: []string{a.Sentence},
				Claims:    []string{a.Sentence},
				Color:     statement.Green,
			})
		}
		return out
	}

	for _, group := range groupSegments(anns) {
		var claims []string
		for _, a := range group {
			if a.Claim {
				claims = append(claims, a.Sentence)
			}
		}
		if len(claims) == 0 {
			continue
		}
		first := group[0]
		st := statement.Statement{
			PassageID: first.PassageID,
			SegmentID: first.SegmentID,
			Speaker:   first.Speaker,
			Timestamp: first.Timestamp,
			Claims:    claims,
			Color:     statement.Yellow,
		}
		if len(out)%2 == 1 {
			st.Color = statement.Red
		}
		for _, a := range group {
			st.Sentences = append(st.Sentences, a.Sentence)
		}
		out = append(out, st)
	}
	return out
}

// groupSegments splits annotations into runs sharing a segment key.
func groupSegments(anns []statement.Annotation) [][]statement.Annotation {
	var groups [][]statement.Annotation
	for i, a := range anns {
		if i == 0 || a.Key() != anns[i-1].Key() {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], a)
	}
	return groups
}

// Report is an annotated transcript laid out for rendering.
type Report struct {
	Title         string                `json:"title"`
	Date          string                `json:"date,omitempty"`
	VideoURL      string                `json:"video_url,omitempty"`
	PDFURL        string                `json:"pdf_url,omitempty"`
	Speakers      []string              `json:"speakers"`
	SegmentLength int                   `json:"segment_length"`
	Passages      []Passage             `json:"passages"`
	Statements    []statement.Statement `json:"statements"`
}

// Passage is one speaker passage split into highlight blocks.
type Passage struct {
	Index     int     `json:"index"`
	Speaker   string  `json:"speaker"`
	Timestamp string  `json:"timestamp,omitempty"`
	Blocks    []Block `json:"blocks"`
}

// Block is a run of sentences rendered with one highlight color. Color is
// empty for plain text.
type Block struct {
	Sentences []string        `json:"sentences"`
	Color     statement.Color `json:"color,omitempty"`
}

// Text joins the block's sentences.
func (b Block) Text() string {
	return statement.Statement{Sentences: b.Sentences}.Text()
}

// New lays out the annotations of doc. Passages without sentences keep
// their heading and have no blocks.
func New(doc *transcript.Document, anns []statement.Annotation, length int) *Report {
	stmts := Statements(anns, length)
	r := &Report{
		Title:         doc.Title,
		Date:          doc.Date,
		VideoURL:      doc.VideoURL,
		PDFURL:        doc.PDFURL,
		Speakers:      doc.Speakers,
		SegmentLength: length,
		Passages:      make([]Passage, len(doc.Passages)),
		Statements:    stmts,
	}
	for i, p := range doc.Passages {
		r.Passages[i] = Passage{Index: p.Index, Speaker: p.Speaker, Timestamp: p.Timestamp}
	}

	colors := make(map[statement.Key]statement.Color, len(stmts))
	for _, st := range stmts {
		colors[statement.Key{PassageID: st.PassageID, SegmentID: st.SegmentID}] = st.Color
	}

	for _, group := range groupSegments(anns) {
		id := group[0].PassageID
		if id < 0 || id >= len(r.Passages) {
			continue
		}
		p := &r.Passages[id]
		if length > 1 {
			b := Block{Color: colors[group[0].Key()]}
			for _, a := range group {
				b.Sentences = append(b.Sentences, a.Sentence)
			}
			p.appendBlock(b)
			continue
		}
		for _, a := range group {
			b := Block{Sentences: []string{a.Sentence}}
			if a.Claim {
				b.Color = statement.Green
			}
			p.appendBlock(b)
		}
	}
	return r
}

// appendBlock merges consecutive plain blocks.
func (p *Passage) appendBlock(b Block) {
	if n := len(p.Blocks); n > 0 && b.Color == "" && p.Blocks[n-1].Color == "" {
		p.Blocks[n-1].Sentences = append(p.Blocks[n-1].Sentences, b.Sentences...)
		return
	}
	p.Blocks = append(p.Blocks, b)
}
