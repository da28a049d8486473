package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"

	"dataset-cms/pkg/models"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>{{.Page.Title}}</title>
{{- with .Canonical}}
  <link rel="canonical" href="{{.}}" />
{{- end}}
</head>
<body class="layout-{{.Page.Layout}}">
  <article class="dataset">
    <h2>{{.Page.Title}}</h2>
{{- if .Page.DownloadURL}}
    <p class="download"><a href="{{.Page.DownloadURL}}">{{.Page.DownloadURL}}</a></p>
{{- end}}
    <ul>
{{- range .Page.Bullets}}
      <li>{{if .Label}}<strong>{{.Label}}:</strong> {{end}}{{.Text}}</li>
{{- end}}
    </ul>
  </article>
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>{{.Title}}</title>
{{- with .Canonical}}
  <link rel="canonical" href="{{.}}" />
{{- end}}
</head>
<body>
  <h1>{{.Title}}</h1>
  <ul>
{{- range .Pages}}
    <li><a href="{{.Slug}}.html">{{.Title}}</a></li>
{{- end}}
  </ul>
</body>
</html>
`))

// RenderPage serializes page to format (html, text, markdown or json). The
// output depends only on page and format.
func RenderPage(page *models.DatasetPage, format string) ([]byte, error) {
	return RenderPageAt(page, format, "")
}

// RenderPageAt is RenderPage with the page's published address, which html
// output carries as its canonical link. Other formats ignore it.
func RenderPageAt(page *models.DatasetPage, format, canonical string) ([]byte, error) {
	if page == nil {
		return nil, &RenderError{Format: format, Err: fmt.Errorf("nil page")}
	}
	if err := checkEncodable(page, format); err != nil {
		return nil, err
	}

	var (
		out []byte
		err error
	)
	switch format {
	case "html":
		var buf bytes.Buffer
		data := struct {
			Page      *models.DatasetPage
			Canonical string
		}{page, canonical}
		err = pageTemplate.Execute(&buf, data)
		out = buf.Bytes()
	case "text":
		out = renderText(page)
	case "markdown":
		out, err = renderMarkdown(page)
	case "json":
		out, err = json.MarshalIndent(page, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	default:
		return nil, &RenderError{Format: format, Err: ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, &RenderError{Format: format, Err: err}
	}
	return out, nil
}

// RenderIndex renders the listing page of a built site. Links are relative
// to the index.
func RenderIndex(title, canonical string, pages []models.PageSummary) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Title     string
		Canonical string
		Pages     []models.PageSummary
	}{title, canonical, pages}
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, &RenderError{Format: "html", Err: err}
	}
	return buf.Bytes(), nil
}

// ContentType returns the media type served for a render format.
func ContentType(format string) string {
	switch format {
	case "html":
		return "text/html; charset=utf-8"
	case "json":
		return "application/json; charset=utf-8"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func checkEncodable(page *models.DatasetPage, format string) error {
	fields := []struct{ name, value string }{
		{"title", page.Title},
		{"layout", page.Layout},
		{"download_url", page.DownloadURL},
		{"impact", page.Impact},
		{"dataset_description", page.DatasetDescription},
		{"task", page.Task},
		{"splitting_criteria", page.SplittingCriteria},
	}
	for i, s := range page.Sections {
		fields = append(fields,
			struct{ name, value string }{fmt.Sprintf("sections[%d].label", i), s.Label},
			struct{ name, value string }{fmt.Sprintf("sections[%d].text", i), s.Text},
		)
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return &RenderError{Format: format, Field: f.name, Err: ErrEncoding}
		}
	}
	return nil
}

func renderText(page *models.DatasetPage) []byte {
	var buf bytes.Buffer
	buf.WriteString(page.Title)
	buf.WriteString("\n")
	buf.WriteString(strings.Repeat("=", utf8.RuneCountInString(page.Title)))
	buf.WriteString("\n")
	if page.DownloadURL != "" {
		fmt.Fprintf(&buf, "\nDownload: %s\n", page.DownloadURL)
	}
	for _, s := range page.Bullets() {
		buf.WriteString("\n")
		if s.Label != "" {
			fmt.Fprintf(&buf, "%s: ", s.Label)
		}
		buf.WriteString(s.Text)
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// renderMarkdown rebuilds a source document that loads back to page. A
// title or download link the body cannot carry verbatim goes into the front
// matter instead.
func renderMarkdown(page *models.DatasetPage) ([]byte, error) {
	fm := map[string]interface{}{"layout": page.Layout}

	var body strings.Builder
	if headingSafe(page.Title) {
		fmt.Fprintf(&body, "## %s\n\n", page.Title)
	} else {
		fm["title"] = page.Title
	}
	if page.DownloadURL != "" {
		if destinationSafe(page.DownloadURL) {
			fmt.Fprintf(&body, "[Download](<%s>)\n\n", page.DownloadURL)
		} else {
			fm["download_url"] = page.DownloadURL
		}
	}
	for _, s := range page.Bullets() {
		body.WriteString("- ")
		if s.Label != "" {
			fmt.Fprintf(&body, "**%s:** ", s.Label)
		}
		body.WriteString(indentContinuation(s.Text))
		body.WriteString("\n")
	}

	format := page.Format
	if format == "" {
		format = "yaml"
	}
	return ConstructFileContent(fm, strings.TrimSpace(body.String()), format)
}

// headingSafe reports whether title survives as an ATX heading. A trailing
// '#' would be read as a closing sequence.
func headingSafe(title string) bool {
	return title != "" &&
		title == strings.TrimSpace(title) &&
		!strings.ContainsAny(title, "\r\n") &&
		!strings.HasSuffix(title, "#")
}

// destinationSafe reports whether url can be written as a <...> link
// destination and read back unchanged.
func destinationSafe(url string) bool {
	return url == strings.TrimSpace(url) &&
		!strings.ContainsAny(url, "<>\r\n") &&
		!strings.HasSuffix(url, "\\")
}

// indentContinuation moves every line after the first under the "- " marker.
func indentContinuation(text string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = "  " + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
