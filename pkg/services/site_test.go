package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepo points the config at a temporary repository holding the RES page
// and a page missing its task.
func setupRepo(t *testing.T) string {
	t.Helper()

	repo := t.TempDir()
	oldRepo, oldContent, oldPublic := config.RepoPath, config.ContentDir, config.PublicPath
	config.RepoPath = repo
	config.ContentDir = "content"
	config.PublicPath = filepath.Join(repo, "public")
	InvalidateCache()
	t.Cleanup(func() {
		config.RepoPath, config.ContentDir, config.PublicPath = oldRepo, oldContent, oldPublic
		InvalidateCache()
	})

	writeFile(t, filepath.Join(repo, "content", "res.md"), readFixture(t))
	writeFile(t, filepath.Join(repo, "content", "broken.md"), []byte("## Broken\n\n- **Dataset description:** d\n"))
	writeFile(t, filepath.Join(repo, "content", "notes.txt"), []byte("ignored"))
	return repo
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestGetPagesCache(t *testing.T) {
	setupRepo(t)

	pages, err := GetPagesCache()
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "broken.md", pages[0].Path)
	assert.Equal(t, "broken", pages[0].Slug)
	assert.Contains(t, pages[0].Error, "task")

	assert.Equal(t, "res.md", pages[1].Path)
	assert.Equal(t, resTitle, pages[1].Title)
	assert.Empty(t, pages[1].Error)

	page, ok, err := GetCachedPage("res")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "res.md", page.Path)
	assert.Equal(t, resTask, page.Task)

	_, ok, err = GetCachedPage("broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPagesCacheConcurrencyLimit(t *testing.T) {
	repo := setupRepo(t)
	old := config.CacheConcurrency
	config.CacheConcurrency = 1
	t.Cleanup(func() { config.CacheConcurrency = old })

	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(repo, "content", "nested", name+".md"), readFixture(t))
	}

	pages, err := GetPagesCache()
	require.NoError(t, err)
	assert.Len(t, pages, 5)

	_, ok, err := GetCachedPage("nested/b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildSite(t *testing.T) {
	repo := setupRepo(t)

	log, err := BuildSite(&models.CMSConfig{SiteTitle: "ATOM3D datasets"})
	require.NoError(t, err)
	assert.Contains(t, log, "skip broken.md")

	out, err := os.ReadFile(filepath.Join(repo, "public", "res.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), resTitle)
	assert.Contains(t, string(out), resSplit)

	index, err := os.ReadFile(filepath.Join(repo, "public", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "ATOM3D datasets")
	assert.Contains(t, string(index), `href="res.html"`)
	assert.NotContains(t, string(index), "broken")

	_, err = os.Stat(filepath.Join(repo, "public", "broken.html"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBuildSiteCanonicalLinks(t *testing.T) {
	repo := setupRepo(t)

	_, err := BuildSite(&models.CMSConfig{BaseURL: "https://www.atom3d.ai/datasets/"})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(repo, "public", "res.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<link rel="canonical" href="https://www.atom3d.ai/datasets/res.html" />`)

	index, err := os.ReadFile(filepath.Join(repo, "public", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<link rel="canonical" href="https://www.atom3d.ai/datasets/" />`)
}

func TestReadPage(t *testing.T) {
	setupRepo(t)

	page, err := ReadPage("res.md")
	require.NoError(t, err)
	assert.Equal(t, "res.md", page.Path)
	assert.Equal(t, resTitle, page.Title)

	_, err = ReadPage("missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadPage("../secret.md")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = ReadPage("broken.md")
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestSafeJoin(t *testing.T) {
	tests := []struct {
		target string
		ok     bool
	}{
		{"res.md", true},
		{"tasks/res.md", true},
		{"tasks/../res.md", true},
		{"", false},
		{"..", false},
		{"../res.md", false},
		{"tasks/../../res.md", false},
		{"/etc/passwd", false},
	}

	for _, tt := range tests {
		got, err := SafeJoin("/repo", "content", tt.target)
		if tt.ok {
			assert.NoError(t, err, tt.target)
			assert.True(t, filepath.IsAbs(got), tt.target)
		} else {
			assert.ErrorIs(t, err, ErrInvalidPath, tt.target)
		}
	}
}

func TestSavePage(t *testing.T) {
	repo := setupRepo(t)

	// Warm the cache so the save has to invalidate it.
	_, err := GetPagesCache()
	require.NoError(t, err)

	req := models.SaveRequest{
		Path: "tasks/lba.md",
		Page: &models.DatasetPage{
			Title:              "Ligand Binding Affinity (LBA)",
			DatasetDescription: "protein-ligand complexes from PDBBind",
			Task:               "predict pK of each complex",
			Sections:           []models.Section{{Label: "Metrics", Text: "RMSE"}},
		},
	}
	page, err := SavePage(req, &models.CMSConfig{DefaultFormat: "toml"})
	require.NoError(t, err)
	assert.Equal(t, "toml", page.Format)
	assert.Equal(t, "default", page.Layout)

	written, err := os.ReadFile(filepath.Join(repo, "content", "tasks", "lba.md"))
	require.NoError(t, err)
	reloaded, err := LoadPage(written)
	require.NoError(t, err)
	assert.Equal(t, "predict pK of each complex", reloaded.Task)
	assert.Equal(t, []models.Section{{Label: "Metrics", Text: "RMSE"}}, reloaded.Sections)

	_, ok, err := GetCachedPage("tasks/lba")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSavePageRejectsInvalid(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name string
		req  models.SaveRequest
		cfg  *models.CMSConfig
		want error
	}{
		{
			name: "missing task",
			req:  models.SaveRequest{Path: "x.md", Content: "## T\n\n- **Dataset description:** d\n"},
			want: ErrMissingField,
		},
		{
			name: "escaping path",
			req:  models.SaveRequest{Path: "../x.md", Content: string(readFixture(t))},
			want: ErrInvalidPath,
		},
		{
			name: "not markdown",
			req:  models.SaveRequest{Path: "x.html", Content: string(readFixture(t))},
			want: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SavePage(tt.req, tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("layout not allowed", func(t *testing.T) {
		_, err := SavePage(models.SaveRequest{Path: "x.md", Content: string(readFixture(t))},
			&models.CMSConfig{Layouts: []string{"wide"}})
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, []string{"layout"}, parseErr.Fields)
	})

	_, err := os.Stat(filepath.Join(repo, "content", "x.md"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCreatePage(t *testing.T) {
	setupRepo(t)

	req := models.SaveRequest{Path: "res-copy.md", Content: string(readFixture(t))}
	_, err := CreatePage(req, nil)
	require.NoError(t, err)

	_, err = CreatePage(req, nil)
	assert.ErrorIs(t, err, os.ErrExist)

	req.Path = "res.md"
	_, err = CreatePage(req, nil)
	assert.ErrorIs(t, err, os.ErrExist)
}
