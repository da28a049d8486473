package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMaintainerRoutesRequireLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter("test-secret")

	for _, path := range []string{"/api/page", "/api/create", "/api/build", "/api/sync", "/api/publish"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestUnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter("test-secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
