package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/statements/internal/statement"
)

var (
	// ErrRunNotFound indicates no stored run matches an id.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousRunID indicates an id prefix that matches several runs.
	ErrAmbiguousRunID = errors.New("run id prefix is ambiguous")
)

// Run is a stored segmentation of one document.
type Run struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Source     string             `json:"source"`
	Title      string             `json:"title,omitempty"`
	Date       string             `json:"date,omitempty"`
	Model      string             `json:"model"`
	SegmentLen int                `json:"segment_len"`
	Greedy     bool               `json:"greedy"`
	Passages   int                `json:"passages"`
	Sentences  int                `json:"sentences"`
	Segments   int                `json:"segments"`
	Records    []statement.Record `json:"records,omitempty"`
}

const selectRunFields = `id, created_at, source, title, date, model,
	segment_len, greedy, passages, sentences, segments`

// SaveRun stores a run and its records. A missing ID or creation time is
// filled in; sentence and segment counts are derived from the records.
func (d *DB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Sentences = len(run.Records)
	run.Segments = statement.CountSegments(run.Records)

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (`+selectRunFields+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Source,
		nullableStringValue(run.Title), nullableStringValue(run.Date), run.Model,
		run.SegmentLen, run.Greedy, run.Passages, run.Sentences, run.Segments,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	segStmt, err := tx.Prepare(`INSERT INTO segments
		(run_id, seq, passage_id, segment_id, sentence, speaker, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing segment insert: %w", err)
	}
	defer segStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO segments_fts (run_id, seq, sentence, speaker) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, r := range run.Records {
		_, err := segStmt.Exec(run.ID, i, r.PassageID, r.SegmentID, r.Sentence,
			nullableStringValue(r.Speaker), nullableStringValue(r.Timestamp))
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
		if _, err := ftsStmt.Exec(run.ID, i, r.Sentence, r.Speaker); err != nil {
			return fmt.Errorf("inserting fts for record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns stored runs without records, newest first.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + selectRunFields + ` FROM runs ORDER BY created_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LoadRun returns a run with its records. id may be a unique prefix.
func (d *DB) LoadRun(id string) (*Run, error) {
	fullID, err := d.resolveRunID(id)
	if err != nil {
		return nil, err
	}

	run, err := scanRun(d.db.QueryRow(`SELECT `+selectRunFields+` FROM runs WHERE id = ?`, fullID))
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(`SELECT passage_id, segment_id, sentence, speaker, timestamp
		FROM segments WHERE run_id = ? ORDER BY seq`, fullID)
	if err != nil {
		return nil, fmt.Errorf("loading records of %s: %w", fullID, err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		run.Records = append(run.Records, r)
	}
	return run, rows.Err()
}

// DeleteRun removes a run and its records. id may be a unique prefix.
func (d *DB) DeleteRun(id string) error {
	fullID, err := d.resolveRunID(id)
	if err != nil {
		return err
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM segments_fts WHERE run_id = ?",
		"DELETE FROM segments WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := tx.Exec(q, fullID); err != nil {
			return fmt.Errorf("deleting run %s: %w", fullID, err)
		}
	}
	return tx.Commit()
}

// SentenceHit is a stored sentence matching a search.
type SentenceHit struct {
	RunID string `json:"run_id"`
	statement.Record
}

// SearchSentences performs a full-text search over stored sentences and
// speakers.
func (d *DB) SearchSentences(query string, limit int) ([]SentenceHit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT s.run_id, s.passage_id, s.segment_id, s.sentence, s.speaker, s.timestamp
		FROM segments_fts f
		JOIN segments s ON s.run_id = f.run_id AND s.seq = f.seq
		WHERE segments_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var hits []SentenceHit
	for rows.Next() {
		var hit SentenceHit
		var speaker, timestamp sql.NullString
		if err := rows.Scan(&hit.RunID, &hit.PassageID, &hit.SegmentID, &hit.Sentence, &speaker, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hit.Speaker = speaker.String
		hit.Timestamp = timestamp.String
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (d *DB) resolveRunID(id string) (string, error) {
	if id == "" {
		return "", ErrRunNotFound
	}
	rows, err := d.db.Query(`SELECT id FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`, id, len(id), id)
	if err != nil {
		return "", fmt.Errorf("resolving run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var found string
		if err := rows.Scan(&found); err != nil {
			return "", err
		}
		if found == id {
			return found, nil
		}
		ids = append(ids, found)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var created int64
	var title, date sql.NullString
	err := s.Scan(&run.ID, &created, &run.Source, &title, &date, &run.Model,
		&run.SegmentLen, &run.Greedy, &run.Passages, &run.Sentences, &run.Segments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.CreatedAt = time.UnixMilli(created).UTC()
	run.Title = title.String
	run.Date = date.String
	return &run, nil
}

func scanRecord(s scanner) (statement.Record, error) {
	var r statement.Record
	var speaker, timestamp sql.NullString
	if err := s.Scan(&r.PassageID, &r.SegmentID, &r.Sentence, &speaker, &timestamp); err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}
	r.Speaker = speaker.String
	r.Timestamp = timestamp.String
	return r, nil
}
