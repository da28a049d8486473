package models

// Section is one labelled bullet of a page body, kept in document order.
type Section struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Document is a content file split into its front matter and body sections.
type Document struct {
	// Meta is the decoded front matter, nil when the file has none.
	Meta map[string]interface{}
	// Format is the front matter dialect: yaml, toml, json or "".
	Format string
	// Title is the text of the first heading in the body.
	Title string
	// Links are the body links outside the bullet list, in document order.
	Links []Link
	// Body holds one Section per bullet, in document order.
	Body []Section
}

// DatasetPage represents a dataset description page in the CMS.
type DatasetPage struct {
	Path               string    `json:"path,omitempty"`
	Layout             string    `json:"layout"`
	Format             string    `json:"format,omitempty"`
	Title              string    `json:"title" validate:"required"`
	DownloadURL        string    `json:"download_url,omitempty" validate:"omitempty,http_url"`
	Impact             string    `json:"impact,omitempty"`
	DatasetDescription string    `json:"dataset_description" validate:"required"`
	Task               string    `json:"task" validate:"required"`
	SplittingCriteria  string    `json:"splitting_criteria,omitempty"`
	Sections           []Section `json:"sections,omitempty"`
}

// PageSummary is the cached listing entry for a content file.
type PageSummary struct {
	Path    string `json:"path"`
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Error   string `json:"error,omitempty"`
	IsDirty bool   `json:"is_dirty"`
}

// SaveRequest is the payload of the save and diff endpoints. Either Content
// (a raw document) or Page is set.
type SaveRequest struct {
	Path    string       `json:"path"`
	Content string       `json:"content,omitempty"`
	Page    *DatasetPage `json:"page,omitempty"`
}

// Link is a hyperlink found in a page body outside the section list.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Bullets returns the known fields followed by the extra sections, in the
// order a page shows them. Empty known fields are left out.
func (p *DatasetPage) Bullets() []Section {
	known := []Section{
		{Label: "Impact", Text: p.Impact},
		{Label: "Dataset description", Text: p.DatasetDescription},
		{Label: "Task", Text: p.Task},
		{Label: "Splitting criteria", Text: p.SplittingCriteria},
	}
	out := make([]Section, 0, len(known)+len(p.Sections))
	for _, s := range known {
		if s.Text != "" {
			out = append(out, s)
		}
	}
	return append(out, p.Sections...)
}
