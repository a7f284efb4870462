package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/statements/internal/pdf"
)

// Load parses a transcript file, choosing the parser by extension: PDF files
// are extracted first, markdown goes through ParseMarkdown, anything else is
// read as extracted plain text.
func Load(path string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		var text string
		text, err = pdf.ExtractText(path)
		if err != nil {
			return nil, err
		}
		doc, err = Parse(text)
	case ".md", ".markdown":
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
		doc, err = ParseMarkdown(data)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
		doc, err = Parse(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}
