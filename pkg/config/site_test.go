package config

import (
	"os"
	"path/filepath"
	"testing"

	"dataset-cms/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCMSConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cms.yml")
	content := `site_title: ATOM3D datasets
base_url: https://www.atom3d.ai
public_folder: public
default_format: toml
layouts:
  - default
  - wide
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := ReadCMSConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ATOM3D datasets", cfg.SiteTitle)
	assert.Equal(t, "https://www.atom3d.ai", cfg.BaseURL)
	assert.Equal(t, "toml", cfg.DefaultFormat)
	assert.Equal(t, ContentDir, cfg.ContentFolder)
	assert.Equal(t, []string{"default", "wide"}, cfg.Layouts)
	assert.True(t, cfg.AllowsLayout("wide"))
	assert.False(t, cfg.AllowsLayout("post"))
}

func TestReadCMSConfigDefaults(t *testing.T) {
	t.Setenv("APP_URL", "https://cms.example.org")
	cfg, err := ReadCMSConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "Datasets", cfg.SiteTitle)
	assert.Equal(t, "yaml", cfg.DefaultFormat)
	assert.True(t, cfg.AllowsLayout("anything"))
	assert.Equal(t, "https://cms.example.org"+PreviewURL, cfg.BaseURL)
	assert.Equal(t, "https://cms.example.org/preview/res.html", cfg.PageURL("res"))
}

func TestApply(t *testing.T) {
	oldRepo, oldContent, oldPublic := RepoPath, ContentDir, PublicPath
	t.Cleanup(func() {
		RepoPath, ContentDir, PublicPath = oldRepo, oldContent, oldPublic
	})

	RepoPath, ContentDir, PublicPath = "/srv/site", "content", "/srv/site/public"
	Apply(&models.CMSConfig{})
	assert.Equal(t, "content", ContentDir)
	assert.Equal(t, "/srv/site/public", PublicPath)

	Apply(&models.CMSConfig{ContentFolder: "datasets", PublicFolder: "out"})
	assert.Equal(t, "datasets", ContentDir)
	assert.Equal(t, filepath.Join("/srv/site", "out"), PublicPath)

	Apply(&models.CMSConfig{PublicFolder: "/var/www/datasets"})
	assert.Equal(t, "/var/www/datasets", PublicPath)

	Apply(nil)
	assert.Equal(t, "datasets", ContentDir)
}

func TestReadCMSConfigErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "site_title: [unclosed\n",
		"unknown format": "default_format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cms.yml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := ReadCMSConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestInitReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPO_PATH", "/srv/site")
	t.Setenv("CONTENT_DIR", "datasets")
	t.Setenv("CACHE_CONCURRENCY", "4")
	t.Setenv("PUBLIC_PATH", "")
	t.Setenv("APP_URL", "")
	t.Setenv("GITHUB_REDIRECT_URL", "")

	oldRepo, oldContent, oldPublic, oldCC := RepoPath, ContentDir, PublicPath, CacheConcurrency
	t.Cleanup(func() {
		RepoPath, ContentDir, PublicPath, CacheConcurrency = oldRepo, oldContent, oldPublic, oldCC
	})

	Init()
	assert.Equal(t, "/srv/site", RepoPath)
	assert.Equal(t, "datasets", ContentDir)
	assert.Equal(t, "/srv/site/public", PublicPath)
	assert.Equal(t, 4, CacheConcurrency)
	require.NotNil(t, OauthConf)
	assert.Equal(t, "http://localhost:8080/auth/callback", OauthConf.RedirectURL)
}
