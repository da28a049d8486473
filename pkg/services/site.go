package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"
)

// BuildSite renders every loadable page to PublicPath and writes an index
// listing them. Pages that fail to load are reported in the log and skipped.
func BuildSite(cfg *models.CMSConfig) (string, error) {
	var log strings.Builder

	summaries, err := GetPagesCache()
	if err != nil {
		return log.String(), err
	}

	if err := os.RemoveAll(config.PublicPath); err != nil {
		return log.String(), err
	}
	if err := os.MkdirAll(config.PublicPath, 0755); err != nil {
		return log.String(), err
	}

	var built []models.PageSummary
	for _, summary := range summaries {
		if summary.Error != "" {
			fmt.Fprintf(&log, "skip %s: %s\n", summary.Path, summary.Error)
			continue
		}
		page, ok, err := GetCachedPage(summary.Slug)
		if err != nil {
			return log.String(), err
		}
		if !ok {
			continue
		}

		out, err := RenderPageAt(page, "html", cfg.PageURL(summary.Slug))
		if err != nil {
			return log.String(), fmt.Errorf("%s: %w", summary.Path, err)
		}
		target := filepath.Join(config.PublicPath, filepath.FromSlash(summary.Slug)+".html")
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return log.String(), err
		}
		if err := os.WriteFile(target, out, 0644); err != nil {
			return log.String(), err
		}
		fmt.Fprintf(&log, "Generated %s\n", target)
		built = append(built, summary)
	}

	title, canonical := "Datasets", ""
	if cfg != nil {
		if cfg.SiteTitle != "" {
			title = cfg.SiteTitle
		}
		canonical = cfg.BaseURL
	}
	index, err := RenderIndex(title, canonical, built)
	if err != nil {
		return log.String(), err
	}
	indexPath := filepath.Join(config.PublicPath, "index.html")
	if err := os.WriteFile(indexPath, index, 0644); err != nil {
		return log.String(), err
	}
	fmt.Fprintf(&log, "Generated %s\n", indexPath)
	return log.String(), nil
}
