package transcript

import (
	"regexp"
	"strings"

	"github.com/matsen/statements/internal/sentence"
)

// EditorialMarker ends the transcript part of a briefing.
const EditorialMarker = "Ansprechpartner in der Redaktion"

var (
	datePattern     = regexp.MustCompile(`^\s*(\d+\.\d+\.\d{4})`)
	urlPattern      = regexp.MustCompile(`https?://(?:www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b[-a-zA-Z0-9()@:%_+.~#?&/=]*`)
	timecodePattern = regexp.MustCompile(`[\[(]\d+:\d+(?::\d+)?[\])]`)
)

// Parse reads a transcript as extracted from a briefing PDF.
//
// Lines are consumed in order: the first date line, a title opened by „ and
// closed by “ (possibly over several lines), YouTube and Science Media Center
// URLs, and timecode lines such as "Prof. Dr. Anna Beispiel [00:03:12]" that
// open a passage. All other lines belong to the current passage, which ends
// at the next timecode or at the editorial marker.
func Parse(text string) (*Document, error) {
	doc := &Document{Text: text}

	var (
		current *Passage
		body    []string
		inTitle bool
		title   strings.Builder
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = sentence.Sanitize(strings.Join(body, "\n"))
		doc.Passages = append(doc.Passages, *current)
		current, body = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if inTitle {
			title.WriteString(" ")
			title.WriteString(trimmed)
			if strings.HasSuffix(trimmed, "“") {
				inTitle = false
			}
			continue
		}
		if doc.Date == "" {
			if m := datePattern.FindStringSubmatch(trimmed); m != nil {
				doc.Date = m[1]
				continue
			}
		}
		if title.Len() == 0 && strings.HasPrefix(trimmed, "„") {
			title.WriteString(trimmed)
			inTitle = !strings.HasSuffix(trimmed, "“")
			continue
		}
		if doc.VideoURL == "" || doc.PDFURL == "" {
			if matchURL(doc, trimmed) {
				continue
			}
		}
		if speaker, stamp, rest, ok := parseTimecodeLine(trimmed); ok {
			flush()
			current = &Passage{Speaker: speaker, Timestamp: stamp}
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(trimmed, EditorialMarker) {
			flush()
			continue
		}
		body = append(body, line)
	}
	flush()

	doc.Title = trimTitleQuotes(title.String())
	if err := doc.finish(); err != nil {
		return nil, err
	}
	return doc, nil
}

// matchURL records a video or briefing URL found in line.
func matchURL(doc *Document, line string) bool {
	url := urlPattern.FindString(line)
	switch {
	case url == "":
		return false
	case strings.Contains(url, "youtube") || strings.Contains(url, "youtu.be"):
		if doc.VideoURL == "" {
			doc.VideoURL = url
		}
		return true
	case strings.Contains(url, "sciencemediacenter"):
		if doc.PDFURL == "" {
			doc.PDFURL = url
		}
		return true
	}
	return false
}

// parseTimecodeLine splits "Speaker: [00:00]" or "Speaker (00:00:00)" into
// speaker and timestamp. Text after the timecode is returned as rest.
func parseTimecodeLine(line string) (speaker, stamp, rest string, ok bool) {
	loc := timecodePattern.FindStringIndex(line)
	if loc == nil {
		return "", "", "", false
	}
	speaker = sentence.Sanitize(line[:loc[0]])
	speaker = strings.TrimSpace(strings.TrimSuffix(speaker, ":"))
	stamp = line[loc[0]:loc[1]]
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[loc[1]:]), ":"))
	return speaker, stamp, rest, true
}
