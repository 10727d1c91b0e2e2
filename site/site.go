package site

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"travelblog/models"
)

type SiteModule struct {
	db      *gorm.DB
	siteURL string
	logger  *slog.Logger
}

func NewSiteModule(db *gorm.DB, siteURL string, logger *slog.Logger) *SiteModule {
	return &SiteModule{
		db:      db,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		logger:  logger,
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/sitemap.xml", s.sitemap)
}

func (s *SiteModule) sitemap(c *gin.Context) {
	var posts []models.Post
	err := s.db.WithContext(c.Request.Context()).
		Select("id", "updated_at").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "build sitemap", slog.Any("error", err))
		c.String(http.StatusInternalServerError, "sitemap unavailable")
		return
	}

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	sitemap.WriteString("  <url>\n")
	sitemap.WriteString("    <loc>" + s.siteURL + "/</loc>\n")
	sitemap.WriteString("    <changefreq>daily</changefreq>\n")
	sitemap.WriteString("    <priority>1.0</priority>\n")
	sitemap.WriteString("  </url>\n")

	for _, post := range posts {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString(fmt.Sprintf("    <loc>%s/post/%d/</loc>\n", s.siteURL, post.ID))
		sitemap.WriteString("    <lastmod>" + post.UpdatedAt.UTC().Format(time.RFC3339) + "</lastmod>\n")
		sitemap.WriteString("    <changefreq>weekly</changefreq>\n")
		sitemap.WriteString("    <priority>0.6</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(sitemap.String()))
}
