package services

import (
	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	pageCache   []models.PageSummary
	pageIndex   map[string]*models.DatasetPage
	cacheMutex  sync.Mutex
	cacheLoaded bool
)

// GetPagesCache returns the summaries of every page under the content
// directory, loading them on first use. Pages that fail to load are listed
// with their error.
func GetPagesCache() ([]models.PageSummary, error) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if err := loadCacheLocked(); err != nil {
		return nil, err
	}
	return pageCache, nil
}

// GetCachedPage returns the loaded page for slug.
func GetCachedPage(slug string) (*models.DatasetPage, bool, error) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if err := loadCacheLocked(); err != nil {
		return nil, false, err
	}
	page, ok := pageIndex[slug]
	return page, ok, nil
}

func loadCacheLocked() error {
	if cacheLoaded {
		return nil
	}

	contentDir := ContentRoot()
	var paths []string
	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirtyFiles, _ := getGitDirtyFiles(config.RepoPath)

	summaries := make([]models.PageSummary, len(paths))
	pages := make([]*models.DatasetPage, len(paths))

	var g errgroup.Group
	g.SetLimit(config.CacheConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			relPath, _ := filepath.Rel(contentDir, path)
			relPath = filepath.ToSlash(relPath)
			repoRelPath, _ := filepath.Rel(config.RepoPath, path)

			summary := models.PageSummary{
				Path:    relPath,
				Slug:    Slug(relPath),
				Title:   relPath,
				IsDirty: dirtyFiles[filepath.ToSlash(repoRelPath)],
			}

			content, err := os.ReadFile(path)
			if err != nil {
				summary.Error = err.Error()
				summaries[i] = summary
				return nil
			}
			page, err := LoadPage(content)
			if err != nil {
				summary.Error = err.Error()
				summaries[i] = summary
				return nil
			}
			page.Path = relPath
			summary.Title = page.Title
			summaries[i] = summary
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load pages: %w", err)
	}

	index := make(map[string]*models.DatasetPage, len(pages))
	for i, page := range pages {
		if page != nil {
			index[summaries[i].Slug] = page
		}
	}

	pageCache = summaries
	pageIndex = index
	cacheLoaded = true
	return nil
}

// ContentRoot is the directory holding page documents.
func ContentRoot() string {
	return filepath.Join(config.RepoPath, config.ContentDir)
}

// Slug turns a content-relative path into the name a page is served under.
func Slug(relPath string) string {
	return strings.TrimSuffix(filepath.ToSlash(relPath), ".md")
}

func getGitDirtyFiles(dir string) (map[string]bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	dirty := make(map[string]bool)
	lines := strings.Split(string(out), "\n")
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		path = strings.Trim(path, "\"")
		dirty[path] = true
	}
	return dirty, nil
}

func InvalidateCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	cacheLoaded = false
	pageCache = nil
	pageIndex = nil
}
