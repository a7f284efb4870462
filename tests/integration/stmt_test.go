// Package integration provides integration tests for the stmt command.
package integration

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	stmtBinary     string
	stmtBinaryOnce sync.Once
	stmtBinaryErr  error
)

// getStmtBinary builds the stmt binary once and returns its path.
func getStmtBinary(t *testing.T) string {
	t.Helper()
	stmtBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			stmtBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "stmt-test-*")
		if err != nil {
			stmtBinaryErr = err
			return
		}
		stmtBinary = filepath.Join(tmpDir, "stmt")

		cmd := exec.Command("go", "build", "-o", stmtBinary, "./cmd/stmt")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			stmtBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if stmtBinaryErr != nil {
		t.Fatalf("failed to build stmt: %v", stmtBinaryErr)
	}
	return stmtBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

const transcript = `Transkript
12.04.2021
„Impfstoffe und Hitze“
Moderator [00:00:05]
Willkommen zu unserem Briefing heute.
 Prof. Dr. Anna Beispiel: [00:01:30]
Der Impfstoff wirkt sehr gut. Die Studie zum Impfstoff zeigt Wirkung.
Eine weitere Studie mit Impfstoff folgt. Der Sommer war sehr heiß.
Die Hitze im Sommer bleibt lange. Das Klima und die Hitze ändern sich.
`

const vectors = `8 2
Impfstoff 1 0
Studie 1 0
Wirkung 1 0
wirkt 1 0
Sommer 0 1
Hitze 0 1
Klima 0 1
heiß 0 1
`

// env is an isolated environment for one test.
type env struct {
	dir        string
	transcript string
}

// setupEnv writes a transcript and a tiny word vector file into a temp dir.
func setupEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{dir: dir, transcript: filepath.Join(dir, "briefing.txt")}
	if err := os.WriteFile(e.transcript, []byte(transcript), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "words.vec"), []byte(vectors), 0644); err != nil {
		t.Fatal(err)
	}
	return e
}

// run executes stmt inside the environment and returns stdout and the exit code.
func (e *env) run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(getStmtBinary(t), args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(e.dir, "config"),
		"XDG_CACHE_HOME="+filepath.Join(e.dir, "cache"),
		"STMT_EMBEDDING_PROVIDER=wordvec",
		"STMT_EMBEDDING_VECTORS_PATH="+filepath.Join(e.dir, "words.vec"),
		"STMT_CACHE_PATH="+filepath.Join(e.dir, "stmt.db"),
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	if err != nil {
		t.Fatalf("running stmt %v: %v", args, err)
	}
	return string(out), 0
}

func TestParse(t *testing.T) {
	e := setupEnv(t)
	out, code := e.run(t, "parse", e.transcript)
	if code != 0 {
		t.Fatalf("parse exit code = %d, output: %s", code, out)
	}

	var resp struct {
		Title    string   `json:"title"`
		Speakers []string `json:"speakers"`
		Passages []struct {
			Speaker string `json:"speaker"`
		} `json:"passages"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if resp.Title != "Impfstoffe und Hitze" {
		t.Errorf("title = %q", resp.Title)
	}
	if len(resp.Passages) != 2 {
		t.Fatalf("passages = %d, want 2", len(resp.Passages))
	}
	if resp.Passages[1].Speaker != "Prof. Dr. Anna Beispiel" {
		t.Errorf("speaker = %q", resp.Passages[1].Speaker)
	}
}

func TestParseMissingFile(t *testing.T) {
	e := setupEnv(t)
	_, code := e.run(t, "parse", filepath.Join(e.dir, "missing.txt"))
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestSegmentSaveAndList(t *testing.T) {
	e := setupEnv(t)
	out, code := e.run(t, "segment", e.transcript, "--save")
	if code != 0 {
		t.Fatalf("segment exit code = %d, output: %s", code, out)
	}

	var seg struct {
		Sentences int    `json:"sentences"`
		Segments  int    `json:"segments"`
		RunID     string `json:"run_id"`
		Records   []struct {
			PassageID int `json:"passage_id"`
			SegmentID int `json:"segment_id"`
		} `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &seg); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if seg.RunID == "" {
		t.Error("run_id missing with --save")
	}
	if len(seg.Records) != seg.Sentences {
		t.Errorf("records = %d, sentences = %d", len(seg.Records), seg.Sentences)
	}
	// The expert passage splits between vaccine and weather sentences.
	var ids []int
	for _, r := range seg.Records {
		if r.PassageID == 1 {
			ids = append(ids, r.SegmentID)
		}
	}
	want := []int{0, 0, 0, 1, 1, 1}
	if len(ids) != len(want) {
		t.Fatalf("passage 1 segment ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("passage 1 segment ids = %v, want %v", ids, want)
		}
	}

	out, code = e.run(t, "runs", "list")
	if code != 0 {
		t.Fatalf("runs list exit code = %d", code)
	}
	var list struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if list.Total != 1 || list.Runs[0].ID != seg.RunID {
		t.Errorf("runs list = %+v, want single run %s", list, seg.RunID)
	}
}

func TestConfigSetGet(t *testing.T) {
	e := setupEnv(t)
	if out, code := e.run(t, "config", "segment.length", "5"); code != 0 {
		t.Fatalf("config set exit code = %d, output: %s", code, out)
	}

	out, code := e.run(t, "config", "segment.length")
	if code != 0 {
		t.Fatalf("config get exit code = %d", code)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parsing output: %v\n%s", err, out)
	}
	if got["segment.length"] != "5" {
		t.Errorf("segment.length = %q, want 5", got["segment.length"])
	}

	if _, code := e.run(t, "config", "segment.length", "zero"); code != 2 {
		t.Errorf("invalid value exit code = %d, want 2", code)
	}
}
