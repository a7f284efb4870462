package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

// markdown converts the rendered transcript. Raw HTML is enabled for the
// <mark> highlights; transcript text is escaped before it gets there.
var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))

func init() {
	compiledTemplate = template.Must(template.New("report").Parse(htmlTemplate))
}

// highlight maps statement colors to CSS background colors.
var highlight = map[string]template.CSS{
	"yellow": "#fff176",
	"red":    "#ef9a9a",
	"green":  "#a5d6a7",
}

// templateData holds data for the HTML template.
type templateData struct {
	Title      string
	Body       template.HTML
	Highlights map[string]template.CSS
}

// RenderHTML renders the annotated transcript as a self-contained HTML page.
func RenderHTML(r *Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	var body bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(r)), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	data := templateData{
		Title:      r.Title,
		Body:       template.HTML(body.String()),
		Highlights: highlight,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      max-width: 48em;
      margin: 2em auto;
      padding: 0 1em;
      line-height: 1.6;
      color: #222;
    }
    h2 {
      font-size: 1.1em;
      margin-top: 1.5em;
      color: #555;
    }
    mark {
      padding: 1px 2px;
      border-radius: 2px;
    }
{{- range $color, $hex := .Highlights}}
    mark.{{$color}} { background: {{$hex}}; }
{{- end}}
  </style>
</head>
<body>
{{.Body}}
</body>
</html>
`
