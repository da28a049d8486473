package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dataset-cms/pkg/models"

	"github.com/goccy/go-yaml"
)

// LoadCMSConfig reads the site configuration from RepoPath. A missing file
// yields the defaults.
func LoadCMSConfig() (*models.CMSConfig, error) {
	return ReadCMSConfig(filepath.Join(RepoPath, SiteConfigFile))
}

func ReadCMSConfig(path string) (*models.CMSConfig, error) {
	cfg := &models.CMSConfig{
		SiteTitle:     "Datasets",
		ContentFolder: ContentDir,
		DefaultFormat: "yaml",
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	switch cfg.DefaultFormat {
	case "yaml", "toml", "json":
	default:
		return nil, fmt.Errorf("parse %s: unsupported default_format %q", path, cfg.DefaultFormat)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GetAppURL() + PreviewURL
	}
	return cfg, nil
}

// Apply lets cms.yml relocate the content and public directories. Relative
// folders are resolved against RepoPath.
func Apply(cfg *models.CMSConfig) {
	if cfg == nil {
		return
	}
	if cfg.ContentFolder != "" {
		ContentDir = cfg.ContentFolder
	}
	if cfg.PublicFolder != "" {
		if filepath.IsAbs(cfg.PublicFolder) {
			PublicPath = cfg.PublicFolder
		} else {
			PublicPath = filepath.Join(RepoPath, cfg.PublicFolder)
		}
	}
}
