package embedding

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrEmptyVectors is returned when a word vector file holds no vectors.
var ErrEmptyVectors = errors.New("word vector file contains no vectors")

// WordVectors is a static token embedding table loaded from a word2vec/fastText
// text file (".vec"). Unknown tokens map to the zero vector, which makes the
// sentinel lookup return zeros as well.
//
// The table is read-only after loading and safe for concurrent use.
type WordVectors struct {
	name       string
	dimensions int
	vectors    map[string][]float32
}

// LoadWordVectors reads a ".vec" file from disk.
func LoadWordVectors(path string) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word vectors: %w", err)
	}
	defer f.Close()

	wv, err := ReadWordVectors(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return wv, nil
}

// ReadWordVectors parses word vectors in text format. An optional first line
// "<count> <dimensions>" is accepted and skipped.
func ReadWordVectors(r io.Reader, name string) (*WordVectors, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	wv := &WordVectors{name: name, vectors: make(map[string][]float32)}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 && isInt(fields[0]) && isInt(fields[1]) {
			continue // header
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected token and vector", lineNo)
		}

		vec := make([]float32, len(fields)-1)
		for i, s := range fields[1:] {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing component %d: %w", lineNo, i, err)
			}
			vec[i] = float32(f)
		}

		if wv.dimensions == 0 {
			wv.dimensions = len(vec)
		} else if len(vec) != wv.dimensions {
			return nil, fmt.Errorf("line %d: got %d dimensions, want %d", lineNo, len(vec), wv.dimensions)
		}
		wv.vectors[fields[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	if len(wv.vectors) == 0 {
		return nil, ErrEmptyVectors
	}
	return wv, nil
}

func isInt(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Embed returns the stored vector for text, or the zero vector if unknown.
func (w *WordVectors) Embed(_ context.Context, text string) (Embedding, error) {
	vec, ok := w.vectors[text]
	if !ok {
		return Embedding{Vector: make([]float32, w.dimensions)}, nil
	}
	return Embedding{Vector: vec}.Clone(), nil
}

// EmbedBatch looks up every text.
func (w *WordVectors) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	out := make([]Embedding, len(texts))
	for i, text := range texts {
		out[i], _ = w.Embed(ctx, text)
	}
	return out, nil
}

// ModelName returns the file name the vectors were loaded from.
func (w *WordVectors) ModelName() string {
	return w.name
}

// Dimensions returns the vector width of the table.
func (w *WordVectors) Dimensions() int {
	return w.dimensions
}

// Len returns the number of tokens in the table.
func (w *WordVectors) Len() int {
	return len(w.vectors)
}
