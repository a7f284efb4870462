package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/matsen/statements/internal/embedding"
)

// Compile-time check that DB can back the embedding cache.
var _ embedding.VectorStore = (*DB)(nil)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDBTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := OpenDB(path)
		if err != nil {
			t.Fatalf("OpenDB() #%d error = %v", i, err)
		}
		db.Close()
	}
}

func TestVectors(t *testing.T) {
	db := setupTestDB(t)

	in := map[string][]float32{
		"Klima":  {0.25, -1.5, 3},
		"Wetter": {0, 0, 1e-7},
	}
	if err := db.PutVectors("model-a", in); err != nil {
		t.Fatalf("PutVectors() error = %v", err)
	}

	got, err := db.GetVectors("model-a", []string{"Klima", "Wetter", "unbekannt"})
	if err != nil {
		t.Fatalf("GetVectors() error = %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Errorf("GetVectors() = %v, want %v", got, in)
	}

	other, err := db.GetVectors("model-b", []string{"Klima"})
	if err != nil {
		t.Fatalf("GetVectors(model-b) error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("vectors leaked across models: %v", other)
	}

	if err := db.PutVectors("model-a", map[string][]float32{"Klima": {9, 9, 9}}); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetVectors("model-a", []string{"Klima"})
	if !reflect.DeepEqual(got["Klima"], []float32{9, 9, 9}) {
		t.Errorf("PutVectors did not replace: %v", got["Klima"])
	}

	if n, err := db.CountVectors("model-a"); err != nil || n != 2 {
		t.Errorf("CountVectors() = %d, %v, want 2", n, err)
	}
	if err := db.ClearVectors("model-a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.CountVectors("model-a"); n != 0 {
		t.Errorf("CountVectors() after clear = %d", n)
	}
}

func TestGetVectorsManyTokens(t *testing.T) {
	db := setupTestDB(t)

	in := make(map[string][]float32)
	var tokens []string
	for i := 0; i < 2*vectorQueryChunk+7; i++ {
		tok := "t" + strconv.Itoa(i)
		tokens = append(tokens, tok)
		in[tok] = []float32{float32(i)}
	}
	if err := db.PutVectors("m", in); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetVectors("m", tokens)
	if err != nil {
		t.Fatalf("GetVectors() error = %v", err)
	}
	if len(got) != len(in) {
		t.Errorf("got %d vectors, want %d", len(got), len(in))
	}
}

func TestDecodeVectorRejectsBadBlob(t *testing.T) {
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	db := setupTestDB(t)

	run := &Run{
		Source:     "briefing.pdf",
		Title:      "Hitzewellen",
		Date:       "12.07.2023",
		Model:      "wordvec:de",
		SegmentLen: 3,
		Passages:   2,
		Records:    testRecords,
	}
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("SaveRun did not assign id/time: %+v", run)
	}
	if run.Sentences != 3 || run.Segments != 3 {
		t.Errorf("counts = %d sentences, %d segments, want 3 and 3", run.Sentences, run.Segments)
	}

	got, err := db.LoadRun(run.ID)
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if !reflect.DeepEqual(got.Records, testRecords) {
		t.Errorf("records = %+v, want %+v", got.Records, testRecords)
	}
	if got.Title != run.Title || got.Model != run.Model || got.SegmentLen != 3 || got.Greedy {
		t.Errorf("run = %+v", got)
	}
	if !got.CreatedAt.Equal(run.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}

	byPrefix, err := db.LoadRun(run.ID[:8])
	if err != nil || byPrefix.ID != run.ID {
		t.Errorf("LoadRun(prefix) = %v, %v", byPrefix, err)
	}
}

func TestLoadRunErrors(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.LoadRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}

	for _, id := range []string{"abc-1", "abc-2"} {
		if err := db.SaveRun(&Run{ID: id, Source: "s", Model: "m"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.LoadRun("abc"); !errors.Is(err, ErrAmbiguousRunID) {
		t.Errorf("error = %v, want ErrAmbiguousRunID", err)
	}
	if _, err := db.LoadRun("abc-1"); err != nil {
		t.Errorf("exact id error = %v", err)
	}
}

func TestListAndDeleteRuns(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		run := &Run{ID: id, Source: id + ".pdf", Model: "m", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "mid" {
		t.Errorf("ListRuns(2) = %+v", runs)
	}

	if err := db.DeleteRun("mid"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	runs, _ = db.ListRuns(0)
	if len(runs) != 2 {
		t.Errorf("runs after delete = %d, want 2", len(runs))
	}
}

func TestSearchSentences(t *testing.T) {
	db := setupTestDB(t)
	run := &Run{Source: "s", Model: "m", Records: testRecords}
	if err := db.SaveRun(run); err != nil {
		t.Fatal(err)
	}

	hits, err := db.SearchSentences("Temperaturen", 10)
	if err != nil {
		t.Fatalf("SearchSentences() error = %v", err)
	}
	if len(hits) != 1 || hits[0].RunID != run.ID || hits[0].PassageID != 1 || hits[0].Speaker != "Dr. Lea Klima" {
		t.Errorf("hits = %+v", hits)
	}

	if hits, _ := db.SearchSentences("Moderator", 10); len(hits) != 1 {
		t.Errorf("speaker search hits = %+v", hits)
	}
	if hits, _ := db.SearchSentences(`"quoted`, 10); len(hits) != 0 {
		t.Errorf("quote search hits = %+v", hits)
	}
	if hits, _ := db.SearchSentences("  ", 10); hits != nil {
		t.Errorf("blank search hits = %+v", hits)
	}

	if err := db.DeleteRun(run.ID); err != nil {
		t.Fatal(err)
	}
	if hits, _ := db.SearchSentences("Temperaturen", 10); len(hits) != 0 {
		t.Errorf("hits after delete = %+v", hits)
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Klima", `"Klima"`},
		{"  Klima  Wandel ", `"Klima" "Wandel"`},
		{`a"b`, `"a""b"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.in); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
