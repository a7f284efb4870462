package transcript

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/matsen/statements/internal/sentence"
)

// ParseMarkdown reads a transcript written as markdown. The first level-one
// heading is the title. Each deeper heading opens a passage and may carry a
// speaker and timecode ("## Moderator [00:00]"); the paragraphs below it form
// the passage text. Paragraphs before the first such heading are passages of
// their own, except for a lone date or briefing link.
func ParseMarkdown(src []byte) (*Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{}
	var (
		current *Passage
		body    []string
		all     []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = sentence.Sanitize(strings.Join(body, " "))
		doc.Passages = append(doc.Passages, *current)
		current, body = nil, nil
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		collectLinks(doc, n, src)

		switch node := n.(type) {
		case *ast.Heading:
			content := strings.TrimSpace(inlineText(node, src))
			if node.Level == 1 && doc.Title == "" {
				doc.Title = trimTitleQuotes(content)
				continue
			}
			flush()
			current = &Passage{Speaker: content}
			if speaker, stamp, rest, ok := parseTimecodeLine(content); ok {
				current.Speaker, current.Timestamp = speaker, stamp
				if rest != "" {
					body = append(body, rest)
				}
			}
		case *ast.Paragraph:
			content := strings.TrimSpace(inlineText(node, src))
			if content == "" {
				continue
			}
			if current == nil {
				if m := datePattern.FindStringSubmatch(content); m != nil && doc.Date == "" && len(m[0]) == len(content) {
					doc.Date = m[1]
					continue
				}
				if urlPattern.FindString(content) == content {
					matchURL(doc, content)
					continue
				}
				all = append(all, content)
				doc.Passages = append(doc.Passages, Passage{Text: sentence.Sanitize(content)})
				continue
			}
			all = append(all, content)
			body = append(body, content)
		}
	}
	flush()

	doc.Text = strings.Join(all, "\n")
	if err := doc.finish(); err != nil {
		return nil, err
	}
	return doc, nil
}

// inlineText concatenates the text of a block's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func collectLinks(doc *Document, n ast.Node, src []byte) {
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch l := c.(type) {
		case *ast.Link:
			matchURL(doc, string(l.Destination))
		case *ast.AutoLink:
			matchURL(doc, string(l.URL(src)))
		}
		return ast.WalkContinue, nil
	})
}
