package common

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CanonicalHost redirects www.<domain> requests to the bare domain so
// the site is served from a single canonical host.
func CanonicalHost(domain string) gin.HandlerFunc {
	canonical := domain
	if i := strings.Index(canonical, "://"); i >= 0 {
		canonical = canonical[i+3:]
	}
	canonical = strings.TrimSuffix(canonical, "/")

	return func(c *gin.Context) {
		host := c.Request.Host

		// Remove port if present (for local development)
		if i := strings.Index(host, ":"); i >= 0 {
			host = host[:i]
		}

		if strings.HasPrefix(host, "www.") && strings.TrimPrefix(host, "www.") == canonical {
			target := domain + c.Request.URL.RequestURI()
			c.Redirect(http.StatusMovedPermanently, target)
			c.Abort()
			return
		}

		c.Next()
	}
}
