package site

import (
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"travelblog/database"
	"travelblog/logging"
	"travelblog/models"
)

type urlset struct {
	URLs []struct {
		Loc     string `xml:"loc"`
		LastMod string `xml:"lastmod"`
	} `xml:"url"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSiteModule(db, "https://travel.example.com/", logging.New(io.Discard, "info", "text")).RegisterRoutes(router)
	return router
}

func TestSitemap(t *testing.T) {
	db := setupTestDB(t)
	category := &models.Category{Name: "Islands"}
	require.NoError(t, db.Create(category).Error)
	post := &models.Post{Title: "Azores", Content: "Green", CategoryID: category.ID, Author: "Ana", Country: "Portugal"}
	require.NoError(t, db.Create(post).Error)

	w := httptest.NewRecorder()
	setupTestRouter(db).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))

	var got urlset
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.URLs, 2)
	assert.Equal(t, "https://travel.example.com/", got.URLs[0].Loc)
	assert.Equal(t, "https://travel.example.com/post/1/", got.URLs[1].Loc)

	_, err := time.Parse(time.RFC3339, got.URLs[1].LastMod)
	assert.NoError(t, err)
}

func TestSitemap_Empty(t *testing.T) {
	w := httptest.NewRecorder()
	setupTestRouter(setupTestDB(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	var got urlset
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.URLs, 1)
}
