package cache

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const pagePrefix = "page:"

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// PageCache caches the public blog HTML pages. Only successful GET
// responses are stored; everything else passes through untouched.
func PageCache(store Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if !isCacheablePath(path) {
			c.Next()
			return
		}

		key := pagePrefix + path
		if cached, err := store.Get(c.Request.Context(), key); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", cached)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK &&
			strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/html") {
			_ = store.Set(c.Request.Context(), key, writer.body.Bytes(), ttl)
		}
	}
}

// isCacheablePath matches the public blog list and detail pages.
func isCacheablePath(path string) bool {
	return path == "/blog" || strings.HasPrefix(path, "/blog/")
}

// ClearPages drops every cached page. Called after any post mutation so
// the public pages never serve stale content.
func ClearPages(ctx context.Context, store Store) error {
	return store.Clear(ctx)
}
