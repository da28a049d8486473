package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"
)

var ErrInvalidPath = errors.New("invalid path")

// SafeJoin joins target below root/sub, rejecting paths that escape it.
func SafeJoin(root, sub, target string) (string, error) {
	cleanTarget := filepath.Clean(filepath.FromSlash(target))
	if target == "" || filepath.IsAbs(cleanTarget) || cleanTarget == ".." ||
		strings.HasPrefix(cleanTarget, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, target)
	}
	return filepath.Join(root, sub, cleanTarget), nil
}

// ReadPage loads the page stored at the content-relative path.
func ReadPage(path string) (*models.DatasetPage, error) {
	fullPath, err := SafeJoin(config.RepoPath, config.ContentDir, path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}
	page, err := LoadPage(content)
	if err != nil {
		return nil, err
	}
	page.Path = filepath.ToSlash(path)
	return page, nil
}

// PrepareContent validates a save request and returns the document to write.
// A raw document is written as sent; a structured page is rendered to
// markdown in its own front matter dialect or the site default.
func PrepareContent(req models.SaveRequest, cfg *models.CMSConfig) ([]byte, *models.DatasetPage, error) {
	var content []byte
	switch {
	case req.Page != nil:
		page := *req.Page
		if page.Format == "" && cfg != nil {
			page.Format = cfg.DefaultFormat
		}
		if page.Layout == "" {
			page.Layout = config.DefaultLayout
		}
		if err := validatePage(&page); err != nil {
			return nil, nil, err
		}
		rendered, err := RenderPage(&page, "markdown")
		if err != nil {
			return nil, nil, err
		}
		content = rendered
	default:
		content = []byte(req.Content)
	}

	page, err := LoadPage(content)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.AllowsLayout(page.Layout) {
		return nil, nil, &ParseError{Fields: []string{"layout"}, Err: fmt.Errorf("layout %q is not allowed", page.Layout)}
	}
	page.Path = filepath.ToSlash(req.Path)
	return content, page, nil
}

// SavePage validates and writes a page, replacing any existing file.
func SavePage(req models.SaveRequest, cfg *models.CMSConfig) (*models.DatasetPage, error) {
	return writePage(req, cfg, false)
}

// CreatePage is SavePage for a path that must not exist yet.
func CreatePage(req models.SaveRequest, cfg *models.CMSConfig) (*models.DatasetPage, error) {
	return writePage(req, cfg, true)
}

func writePage(req models.SaveRequest, cfg *models.CMSConfig, create bool) (*models.DatasetPage, error) {
	if !strings.HasSuffix(req.Path, ".md") {
		return nil, fmt.Errorf("%w: %q must end in .md", ErrInvalidPath, req.Path)
	}
	fullPath, err := SafeJoin(config.RepoPath, config.ContentDir, req.Path)
	if err != nil {
		return nil, err
	}

	content, page, err := PrepareContent(req, cfg)
	if err != nil {
		return nil, err
	}

	if create {
		if _, err := os.Stat(fullPath); err == nil {
			return nil, os.ErrExist
		}
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return nil, err
	}

	InvalidateCache()
	return page, nil
}
