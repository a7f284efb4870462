package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is an output format of a report.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

// ValidFormats lists the supported report formats.
var ValidFormats = []Format{FormatJSON, FormatMarkdown, FormatHTML, FormatPDF}

// ParseFormat converts a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("invalid format %q (valid: %v)", s, ValidFormats)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	case ".pdf":
		return FormatPDF
	default:
		return FormatJSON
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, RenderMarkdown(r))
		return err
	case FormatHTML:
		html, err := RenderHTML(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	case FormatPDF:
		return RenderPDF(w, r)
	default:
		return fmt.Errorf("invalid format %q (valid: %v)", format, ValidFormats)
	}
}

// RenderJSON writes r as indented JSON.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
