package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupCachedRouter(store Store) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(PageCache(store, time.Minute))

	hits := 0
	router.GET("/blog", func(c *gin.Context) {
		hits++
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<html>rendered</html>"))
	})
	router.GET("/api/blog", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, []string{})
	})
	return router, &hits
}

func TestPageCache_MissThenHit(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()
	router, hits := setupCachedRouter(store)

	req, _ := http.NewRequest("GET", "/blog", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, *hits)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, "<html>rendered</html>", w.Body.String())
	assert.Equal(t, 1, *hits)
}

func TestPageCache_SkipsAPIPaths(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()
	router, hits := setupCachedRouter(store)

	req, _ := http.NewRequest("GET", "/api/blog", nil)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, *hits)
}

func TestPageCache_ClearForcesRerender(t *testing.T) {
	store := NewMemoryStore(time.Minute, 0)
	defer store.Close()
	router, hits := setupCachedRouter(store)

	req, _ := http.NewRequest("GET", "/blog", nil)

	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 1, *hits)

	assert.NoError(t, ClearPages(context.Background(), store))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, *hits)
}

func TestIsCacheablePath(t *testing.T) {
	assert.True(t, isCacheablePath("/blog"))
	assert.True(t, isCacheablePath("/blog/123"))
	assert.False(t, isCacheablePath("/"))
	assert.False(t, isCacheablePath("/contact"))
	assert.False(t, isCacheablePath("/api/blog"))
	assert.False(t, isCacheablePath("/admin"))
}
