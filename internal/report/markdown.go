package report

import (
	"fmt"
	"strings"
)

// markdownEscaper escapes characters that would start markdown syntax
// inside transcript text.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `&lt;`,
	`>`, `&gt;`,
)

// RenderMarkdown renders the annotated transcript as markdown. Highlighted
// blocks are wrapped in <mark> elements carrying their color as class.
func RenderMarkdown(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(r.Title)))

	// Metadata
	var meta []string
	if r.Date != "" {
		meta = append(meta, escapeMarkdown(r.Date))
	}
	if r.VideoURL != "" {
		meta = append(meta, fmt.Sprintf("[Video](%s)", r.VideoURL))
	}
	if r.PDFURL != "" {
		meta = append(meta, fmt.Sprintf("[Transcript](%s)", r.PDFURL))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}

	for _, p := range r.Passages {
		b.WriteString("## ")
		b.WriteString(escapeMarkdown(passageHeading(p)))
		b.WriteString("\n\n")
		if len(p.Blocks) == 0 {
			continue
		}
		parts := make([]string, len(p.Blocks))
		for i, blk := range p.Blocks {
			text := escapeMarkdown(blk.Text())
			if blk.Color != "" {
				text = fmt.Sprintf(`<mark class="%s">%s</mark>`, blk.Color, text)
			}
			parts[i] = text
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("---\n\n%d statements\n", len(r.Statements)))
	return b.String()
}

// passageHeading formats a passage's speaker and timestamp.
func passageHeading(p Passage) string {
	speaker := p.Speaker
	if speaker == "" {
		speaker = fmt.Sprintf("Passage %d", p.Index+1)
	}
	if p.Timestamp == "" {
		return speaker
	}
	return fmt.Sprintf("%s %s", speaker, p.Timestamp)
}

func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(s)
	// A leading '#' would turn the line into a heading.
	if strings.HasPrefix(s, "#") {
		s = `\` + s
	}
	return s
}

// StatementsText lists the report's statements as plain text, one
// paragraph per statement prefixed with its speaker.
func StatementsText(r *Report) string {
	var b strings.Builder
	for i, st := range r.Statements {
		if i > 0 {
			b.WriteString("\n")
		}
		prefix := st.Speaker
		if st.Timestamp != "" {
			prefix += " " + st.Timestamp
		}
		if prefix != "" {
			b.WriteString(prefix + ": ")
		}
		b.WriteString(st.Text() + "\n")
	}
	return b.String()
}
