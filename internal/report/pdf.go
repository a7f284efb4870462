package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/matsen/statements/internal/statement"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 5.5
)

// fillColors are the RGB highlight colors of the PDF output.
var fillColors = map[statement.Color][3]int{
	statement.Yellow: {255, 241, 118},
	statement.Red:    {239, 154, 154},
	statement.Green:  {165, 214, 167},
}

// RenderPDF writes the annotated transcript as an A4 PDF. Highlighted blocks
// are set as filled paragraphs. The core fonts cover Latin-1, which is
// enough for German transcripts.
func RenderPDF(w io.Writer, r *Report) error {
	if r == nil {
		return fmt.Errorf("report cannot be nil")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(r.Title, true)
	doc.SetCreator("stmt", true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont(pdfFont, "B", 16)
	doc.MultiCell(0, 8, tr(r.Title), "", "L", false)
	if meta := pdfMetadata(r); meta != "" {
		doc.SetFont(pdfFont, "", 9)
		doc.SetTextColor(100, 100, 100)
		doc.MultiCell(0, 5, tr(meta), "", "L", false)
		doc.SetTextColor(0, 0, 0)
	}
	doc.Ln(4)

	for _, p := range r.Passages {
		doc.SetFont(pdfFont, "B", 11)
		doc.MultiCell(0, 7, tr(passageHeading(p)), "", "L", false)
		doc.SetFont(pdfFont, "", 10)
		for _, blk := range p.Blocks {
			fill := false
			if rgb, ok := fillColors[blk.Color]; ok {
				doc.SetFillColor(rgb[0], rgb[1], rgb[2])
				fill = true
			}
			doc.MultiCell(0, pdfLineHeight, tr(blk.Text()), "", "L", fill)
		}
		doc.Ln(2)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

func pdfMetadata(r *Report) string {
	meta := r.Date
	for _, u := range []string{r.VideoURL, r.PDFURL} {
		if u == "" {
			continue
		}
		if meta != "" {
			meta += "  "
		}
		meta += u
	}
	return meta
}
