package services

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdown      = goldmark.New()
	pageValidator = newPageValidator()

	// **Label:** text, **Label**: text or the __ variants.
	labelPattern = regexp.MustCompile(`^(?:\*\*|__)(.+?)(?::(?:\*\*|__)|(?:\*\*|__):?)[ \t]*`)
)

func newPageValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadPage parses a dataset page document. The document is rejected as a
// whole with a *ParseError when its front matter is malformed, when title,
// task or dataset description is missing, or when the download link is not
// an absolute http(s) URI.
func LoadPage(source []byte) (*models.DatasetPage, error) {
	doc, err := ParseDocument(source)
	if err != nil {
		return nil, err
	}

	page := pageFromDocument(doc)
	if err := validatePage(page); err != nil {
		return nil, err
	}
	return page, nil
}

// ParseDocument splits source into front matter and the labelled bullets,
// title heading and links of its markdown body.
func ParseDocument(source []byte) (*models.Document, error) {
	fm, body, format, err := ParseFrontMatter(source)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &models.Document{Meta: fm, Format: format}
	src := []byte(body)
	root := markdown.Parser().Parse(text.NewReader(src))

	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if doc.Title == "" {
				doc.Title = strings.TrimSpace(string(linesValue(node, src)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			section, ok, err := sectionFromItem(node, src)
			if err != nil {
				return ast.WalkStop, err
			}
			if ok {
				doc.Body = append(doc.Body, section)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			doc.Links = append(doc.Links, models.Link{
				Text: inlineText(node, src),
				URL:  string(node.Destination),
			})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			doc.Links = append(doc.Links, models.Link{
				Text: string(node.Label(src)),
				URL:  string(node.URL(src)),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr
		}
		return nil, &ParseError{Err: err}
	}
	return doc, nil
}

func pageFromDocument(doc *models.Document) *models.DatasetPage {
	page := &models.DatasetPage{
		Layout: metaString(doc.Meta, "layout"),
		Format: doc.Format,
		Title:  doc.Title,
	}
	if page.Layout == "" {
		page.Layout = config.DefaultLayout
	}
	if page.Title == "" {
		page.Title = metaString(doc.Meta, "title")
	}
	page.DownloadURL = downloadLink(doc.Links)
	if page.DownloadURL == "" {
		page.DownloadURL = metaString(doc.Meta, "download_url")
	}

	for _, section := range doc.Body {
		var field *string
		switch canonicalLabel(section.Label) {
		case "impact":
			field = &page.Impact
		case "dataset description":
			field = &page.DatasetDescription
		case "task":
			field = &page.Task
		case "splitting criteria", "splitting criterion":
			field = &page.SplittingCriteria
		}
		if field != nil && *field == "" {
			*field = section.Text
			continue
		}
		page.Sections = append(page.Sections, section)
	}
	return page
}

func validatePage(page *models.DatasetPage) error {
	err := pageValidator.Struct(page)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ParseError{Err: err}
	}

	var missing, invalid []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &ParseError{Fields: missing, Err: ErrMissingField}
	}
	return &ParseError{Fields: invalid, Err: ErrInvalidURL}
}

// sectionFromItem returns the authored source of a list item with its bold
// label split off. Continuation lines lose the indentation of the item's
// content column; nested lists and quotes are kept as written.
func sectionFromItem(item *ast.ListItem, src []byte) (models.Section, bool, error) {
	first := item.FirstChild()
	if first == nil {
		return models.Section{}, false, nil
	}
	if !sectionBlock(first) || first.Kind() == ast.KindList || first.Kind() == ast.KindBlockquote {
		return models.Section{}, false, unsupportedBlock(first)
	}

	start, stop := -1, -1
	err := ast.Walk(item, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n == item {
			return ast.WalkContinue, nil
		}
		if n.Type() != ast.TypeBlock {
			return ast.WalkSkipChildren, nil
		}
		if !sectionBlock(n) {
			return ast.WalkStop, unsupportedBlock(n)
		}
		lines := n.Lines()
		if lines.Len() > 0 {
			if start < 0 || lines.At(0).Start < start {
				start = lines.At(0).Start
			}
			if last := lines.At(lines.Len() - 1); last.Stop > stop {
				stop = last.Stop
			}
		}
		if hb, ok := n.(*ast.HTMLBlock); ok && hb.HasClosure() && hb.ClosureLine.Stop > stop {
			stop = hb.ClosureLine.Stop
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return models.Section{}, false, err
	}
	if start < 0 || stop <= start {
		return models.Section{}, false, nil
	}

	column := start - (bytes.LastIndexByte(src[:start], '\n') + 1)
	raw := strings.TrimSpace(dedent(string(src[start:stop]), column))

	m := labelPattern.FindStringSubmatchIndex(raw)
	if m == nil {
		return models.Section{Text: raw}, true, nil
	}
	return models.Section{
		Label: strings.TrimSpace(raw[m[2]:m[3]]),
		Text:  strings.TrimSpace(raw[m[1]:]),
	}, true, nil
}

// sectionBlock reports whether n is a block whose source a section keeps
// whole. Fenced code, headings and thematic breaks drop their delimiter
// lines from the AST and are refused.
func sectionBlock(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock, ast.KindList, ast.KindListItem,
		ast.KindBlockquote, ast.KindCodeBlock, ast.KindHTMLBlock:
		return true
	}
	return false
}

func unsupportedBlock(n ast.Node) error {
	return &ParseError{
		Fields: []string{"sections"},
		Err:    fmt.Errorf("%w: %s", ErrUnsupportedBlock, n.Kind()),
	}
}

// dedent strips up to column leading spaces from every line but the first.
func dedent(raw string, column int) string {
	lines := strings.Split(raw, "\n")
	for i := 1; i < len(lines); i++ {
		n := 0
		for n < column && n < len(lines[i]) && lines[i][n] == ' ' {
			n++
		}
		lines[i] = lines[i][n:]
	}
	return strings.Join(lines, "\n")
}

func linesValue(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.Bytes()
}

func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return buf.String()
}

// downloadLink prefers a link whose text mentions a download.
func downloadLink(links []models.Link) string {
	for _, l := range links {
		if strings.Contains(strings.ToLower(l.Text), "download") {
			return strings.TrimSpace(l.URL)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].URL)
	}
	return ""
}

func canonicalLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
