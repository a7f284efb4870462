// Package statement defines the core domain types for segmented transcripts.
package statement

import "strings"

// Record is one sentence of a segmented passage.
type Record struct {
	PassageID int    `json:"passage_id"`
	SegmentID int    `json:"segment_id"` // Counts from 0 within each passage
	Sentence  string `json:"sentence"`
	Speaker   string `json:"speaker,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Key identifies a segment within a document.
type Key struct {
	PassageID int `json:"passage_id"`
	SegmentID int `json:"segment_id"`
}

// Key returns the segment the record belongs to.
func (r Record) Key() Key {
	return Key{PassageID: r.PassageID, SegmentID: r.SegmentID}
}

// Annotation is a record with its main concept score and claim verdict.
type Annotation struct {
	Record
	Score    float64 `json:"score"`
	Relevant bool    `json:"relevant"` // Score passed the main concept threshold
	Claim    bool    `json:"claim"`
}

// Color is a highlight color of a statement.
type Color string

const (
	Yellow Color = "yellow"
	Red    Color = "red"
	Green  Color = "green"
)

// Statement is a highlighted unit of the annotated transcript: a whole
// segment that contains at least one claim, or a single claim sentence.
type Statement struct {
	PassageID int      `json:"passage_id"`
	SegmentID int      `json:"segment_id"`
	Speaker   string   `json:"speaker,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Sentences []string `json:"sentences"`
	Claims    []string `json:"claims"`
	Color     Color    `json:"color"`
}

// Text joins the statement's sentences.
func (s Statement) Text() string {
	return strings.Join(s.Sentences, " ")
}

// CountSegments returns the number of distinct segments among records.
func CountSegments(records []Record) int {
	seen := make(map[Key]bool)
	for _, r := range records {
		seen[r.Key()] = true
	}
	return len(seen)
}
