package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts the plain text of every page of a PDF file. Words
// hyphenated across a line break are joined.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", filePath, err)
	}
	defer f.Close()

	return Dehyphenate(pagesText(r)), nil
}

// ExtractTextReader extracts text from a PDF held in a reader.
func ExtractTextReader(r io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	return Dehyphenate(pagesText(pdfReader)), nil
}

func pagesText(r *pdf.Reader) string {
	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// Dehyphenate removes hyphens that end a line, joining the word halves.
func Dehyphenate(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "-\n", "")
}
