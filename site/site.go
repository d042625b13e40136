package site

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"driftwood/analytics"
	"driftwood/models"
)

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

type SiteModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
	domain    string
	log       *zap.Logger
}

func NewSiteModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule, domain string, log *zap.Logger) *SiteModule {
	return &SiteModule{
		db:        db,
		analytics: analyticsModule,
		domain:    domain,
		log:       log,
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", s.index)
	router.GET("/blog", s.blogIndex)
	router.GET("/blog/:id", s.blogPost)
	router.GET("/contact", s.contactPage)
	router.GET("/admin/login", s.adminLogin)
	router.GET("/admin", s.adminDashboard)
	router.GET("/sitemap.xml", s.sitemap)
}

func (s *SiteModule) index(c *gin.Context) {
	// Latest posts feed the "from the blog" strip on the landing page.
	var recent []models.Post
	s.db.Order("created_at DESC").Limit(3).Find(&recent)

	c.HTML(http.StatusOK, "site_index.html", gin.H{
		"title":  "Driftwood Studio",
		"recent": recent,
	})
}

func (s *SiteModule) blogIndex(c *gin.Context) {
	var posts []models.Post
	if err := s.db.Order("created_at DESC").Find(&posts).Error; err != nil {
		s.log.Error("loading posts failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "site_error.html", gin.H{
			"error": "Could not load posts",
		})
		return
	}

	s.analytics.Track(c, nil)

	c.HTML(http.StatusOK, "site_blog.html", gin.H{
		"title": "Blog - Driftwood Studio",
		"posts": posts,
	})
}

func (s *SiteModule) blogPost(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.HTML(http.StatusNotFound, "site_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	var post models.Post
	err := s.db.Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.HTML(http.StatusNotFound, "site_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}
	if err != nil {
		s.log.Error("loading post failed", zap.String("id", id), zap.Error(err))
		c.HTML(http.StatusInternalServerError, "site_error.html", gin.H{
			"error": "Could not load post",
		})
		return
	}

	s.analytics.Track(c, &post.ID)

	c.HTML(http.StatusOK, "site_blog_post.html", gin.H{
		"title":       post.Title + " - Driftwood Studio",
		"post":        post,
		"contentHTML": template.HTML(renderMarkdown(post.Content)),
	})
}

func (s *SiteModule) contactPage(c *gin.Context) {
	session := sessions.Default(c)
	flashes := session.Flashes()
	session.Save()

	var flash string
	if len(flashes) > 0 {
		if msg, ok := flashes[0].(string); ok {
			flash = msg
		}
	}

	c.HTML(http.StatusOK, "site_contact.html", gin.H{
		"title":   "Contact - Driftwood Studio",
		"flash":   flash,
		"name":    "",
		"email":   "",
		"message": "",
	})
}

func (s *SiteModule) adminLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_login.html", gin.H{
		"title": "Admin Login",
	})
}

func (s *SiteModule) adminDashboard(c *gin.Context) {
	// The dashboard is a shell; its script talks to the REST API with
	// the bearer token from localStorage and bounces to the login page
	// when no token is present.
	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"title": "Admin Dashboard",
	})
}

func (s *SiteModule) sitemap(c *gin.Context) {
	domain := strings.TrimSuffix(s.domain, "/")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL := func(loc, changefreq, priority, lastmod string) {
		sitemap.WriteString("  <url>\n")
		sitemap.WriteString("    <loc>" + loc + "</loc>\n")
		if lastmod != "" {
			sitemap.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
		}
		sitemap.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
		sitemap.WriteString("    <priority>" + priority + "</priority>\n")
		sitemap.WriteString("  </url>\n")
	}

	writeURL(domain+"/", "weekly", "1.0", "")
	writeURL(domain+"/blog", "daily", "0.8", "")
	writeURL(domain+"/contact", "monthly", "0.5", "")

	var posts []models.Post
	s.db.Order("created_at DESC").Find(&posts)
	for _, post := range posts {
		writeURL(domain+"/blog/"+post.ID, "monthly", "0.6", post.UpdatedAt.Format(time.RFC3339))
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// On a render failure fall back to the raw content so the page
		// still loads.
		return content
	}
	return buf.String()
}
