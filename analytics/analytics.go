package analytics

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"driftwood/models"
)

const (
	visitorCookie = "driftwood_visitor_id"

	// A repeat view inside this window does not count as a new visit.
	visitThrottle = 30 * time.Minute
)

// Visit is one page view on the public site. Lives in its own database
// so tracking load never touches the content store.
type Visit struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	PostID    *string   `gorm:"type:varchar(36);index"` // nil for the blog list page
	VisitorID string    `gorm:"not null;index"`
	IP        string    `gorm:"not null"`
	Browser   *string
	Language  *string
	CreatedAt time.Time `gorm:"index"`
}

type AnalyticsModule struct {
	db      *gorm.DB // visits database
	content *gorm.DB // main database, for post titles in stats
	log     *zap.Logger
}

// NewAnalyticsModule returns nil when no analytics database is
// configured; callers treat a nil module as "tracking disabled".
func NewAnalyticsModule(db, content *gorm.DB, log *zap.Logger) *AnalyticsModule {
	if db == nil {
		return nil
	}

	if err := db.AutoMigrate(&Visit{}); err != nil {
		log.Error("migrating visits table failed", zap.Error(err))
		return nil
	}

	return &AnalyticsModule{db: db, content: content, log: log}
}

func (a *AnalyticsModule) RegisterRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	router.GET("/api/stats", requireAuth, a.stats)
}

// Track records a visit to a public page. Repeat views from the same
// visitor inside the throttle window are ignored. The insert happens on
// a goroutine so tracking never delays the page.
func (a *AnalyticsModule) Track(c *gin.Context, postID *string) {
	if a == nil || a.db == nil {
		return
	}

	visitorID := a.getOrCreateVisitorID(c)
	if a.recentlySeen(visitorID, postID) {
		return
	}

	visit := Visit{
		PostID:    postID,
		VisitorID: visitorID,
		IP:        c.ClientIP(),
		Browser:   extractBrowser(c.Request.UserAgent()),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		CreatedAt: time.Now(),
	}

	go func() {
		if err := a.db.Create(&visit).Error; err != nil {
			a.log.Error("saving visit failed", zap.Error(err))
		}
	}()
}

func (a *AnalyticsModule) recentlySeen(visitorID string, postID *string) bool {
	cutoff := time.Now().Add(-visitThrottle)

	query := a.db.Where("visitor_id = ? AND created_at > ?", visitorID, cutoff)
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	} else {
		query = query.Where("post_id IS NULL")
	}

	var recent Visit
	return query.First(&recent).Error == nil
}

func (a *AnalyticsModule) getOrCreateVisitorID(c *gin.Context) string {
	if cookie, err := c.Cookie(visitorCookie); err == nil && cookie != "" {
		return cookie
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	id := hex.EncodeToString(b)

	c.SetCookie(visitorCookie, id, int((365 * 24 * time.Hour).Seconds()), "/", "", false, true)
	return id
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type PostCount struct {
	PostID string `json:"post_id"`
	Title  string `json:"title"`
	Count  int64  `json:"count"`
}

// VisitsByDay returns visit counts per day for the last n days.
func (a *AnalyticsModule) VisitsByDay(days int) ([]DayCount, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []DayCount
	err := a.db.Model(&Visit{}).
		Select("date(created_at) as date, count(*) as count").
		Where("created_at > ?", cutoff).
		Group("date(created_at)").
		Order("date(created_at)").
		Scan(&rows).Error
	return rows, err
}

// TopPosts returns the most visited posts within the last n days.
func (a *AnalyticsModule) TopPosts(days, limit int) ([]PostCount, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []PostCount
	err := a.db.Model(&Visit{}).
		Select("post_id, count(*) as count").
		Where("post_id IS NOT NULL AND created_at > ?", cutoff).
		Group("post_id").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	if a.content != nil {
		for i := range rows {
			var post models.Post
			if err := a.content.Where("id = ?", rows[i].PostID).First(&post).Error; err == nil {
				rows[i].Title = post.Title
			}
		}
	}

	return rows, nil
}

func (a *AnalyticsModule) stats(c *gin.Context) {
	visitsByDay, err := a.VisitsByDay(30)
	if err != nil {
		a.log.Error("aggregating visits failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}

	topPosts, err := a.TopPosts(30, 10)
	if err != nil {
		a.log.Error("aggregating top posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visits_by_day": visitsByDay,
		"top_posts":     topPosts,
	})
}

func extractBrowser(userAgent string) *string {
	ua := strings.ToLower(userAgent)

	var browser string
	switch {
	case strings.Contains(ua, "edg/"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	default:
		return nil
	}
	return &browser
}

func extractLanguage(acceptLanguage string) *string {
	if acceptLanguage == "" {
		return nil
	}

	lang := acceptLanguage
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil
	}
	return &lang
}
