package handlers

import (
	"dataset-cms/pkg/config"
	"dataset-cms/pkg/models"
	"dataset-cms/pkg/services"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func HandleBuild(c *gin.Context) {
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": err.Error()})
		return
	}
	log, err := services.BuildSite(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func HandleSync(c *gin.Context) {
	log, err := services.SyncRepo(sessionToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func HandlePublish(c *gin.Context) {
	log, err := services.PublishRepo(sessionToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func ListPages(c *gin.Context) {
	pages, err := services.GetPagesCache()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pages"})
		return
	}
	c.JSON(http.StatusOK, pages)
}

func GetPage(c *gin.Context) {
	page, err := services.ReadPage(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ServePage renders a cached page as HTML.
func ServePage(c *gin.Context) {
	slug := strings.TrimSuffix(strings.TrimPrefix(c.Param("slug"), "/"), ".html")
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		writeError(c, err)
		return
	}
	page, ok, err := services.GetCachedPage(slug)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	out, err := services.RenderPageAt(page, "html", cfg.PageURL(slug))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, services.ContentType("html"), out)
}

// ServeIndex lists the loadable pages.
func ServeIndex(c *gin.Context) {
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		writeError(c, err)
		return
	}
	summaries, err := services.GetPagesCache()
	if err != nil {
		writeError(c, err)
		return
	}
	var pages []models.PageSummary
	for _, s := range summaries {
		if s.Error == "" {
			s.Slug = "pages/" + s.Slug
			pages = append(pages, s)
		}
	}
	out, err := services.RenderIndex(cfg.SiteTitle, cfg.BaseURL, pages)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, services.ContentType("html"), out)
}

// RenderDocument loads the request body as a page document and renders it
// in the format named by the format query parameter.
func RenderDocument(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	page, err := services.LoadPage(body)
	if err != nil {
		writeError(c, err)
		return
	}
	renderPage(c, page, c.DefaultQuery("format", "html"))
}

func SavePage(c *gin.Context) {
	req, cfg, ok := bindSave(c)
	if !ok {
		return
	}
	page, err := services.SavePage(req, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "page": page})
}

func CreatePage(c *gin.Context) {
	req, cfg, ok := bindSave(c)
	if !ok {
		return
	}
	page, err := services.CreatePage(req, cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "created", "page": page})
}

func GetConfig(c *gin.Context) {
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func bindSave(c *gin.Context) (models.SaveRequest, *models.CMSConfig, bool) {
	var req models.SaveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return req, nil, false
	}
	cfg, err := config.LoadCMSConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse config"})
		return req, nil, false
	}
	return req, cfg, true
}

func renderPage(c *gin.Context, page *models.DatasetPage, format string) {
	out, err := services.RenderPage(page, format)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, services.ContentType(format), out)
}

func writeError(c *gin.Context, err error) {
	var parseErr *services.ParseError
	var renderErr *services.RenderError
	switch {
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error(), "fields": parseErr.Fields})
	case errors.As(err, &renderErr):
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": renderErr.Error()})
	case errors.Is(err, services.ErrInvalidPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, os.ErrExist):
		c.JSON(http.StatusConflict, gin.H{"error": "File already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func sessionToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get("access_token").(string)
	return token
}
