package models

import "strings"

// CMSConfig is read from cms.yml at the repository root.
type CMSConfig struct {
	SiteTitle string `yaml:"site_title"`
	// BaseURL is where the built site is published; canonical links of
	// rendered pages point below it.
	BaseURL string `yaml:"base_url"`
	// ContentFolder and PublicFolder override CONTENT_DIR and PUBLIC_PATH.
	ContentFolder string   `yaml:"content_folder"`
	PublicFolder  string   `yaml:"public_folder"`
	DefaultFormat string   `yaml:"default_format"`
	Layouts       []string `yaml:"layouts"`
}

// AllowsLayout reports whether layout may be used by a page. An empty
// Layouts list allows everything.
func (c *CMSConfig) AllowsLayout(layout string) bool {
	if c == nil || len(c.Layouts) == 0 {
		return true
	}
	for _, l := range c.Layouts {
		if l == layout {
			return true
		}
	}
	return false
}

// PageURL returns the published address of the page with slug.
func (c *CMSConfig) PageURL(slug string) string {
	if c == nil || c.BaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + slug + ".html"
}
