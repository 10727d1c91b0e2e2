package cache

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body         *bytes.Buffer
	cacheControl string
}

func (w *responseWriter) WriteHeader(code int) {
	if code == http.StatusOK {
		w.markCacheable()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.markCacheable()
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.markCacheable()
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// markCacheable adds the browser caching headers to a 200 response whose
// headers have not been sent yet.
func (w *responseWriter) markCacheable() {
	if w.Written() || w.Status() != http.StatusOK {
		return
	}
	setCacheHeaders(w.Header(), w.cacheControl)
}

// Pages vary by signed-in user, so only the browser may keep them.
func setCacheHeaders(h http.Header, cacheControl string) {
	h.Set("Cache-Control", cacheControl)
	h.Set("Vary", "Cookie")
}

// KeyFunc names the cache entry for a request. Returning false skips the
// cache for that request.
type KeyFunc func(c *gin.Context) (Key, bool)

// Page serves GET requests from store and stores successful HTML responses
// for ttl. Responses carry X-Cache: HIT or MISS. Store failures are logged
// and the request is served uncached.
func Page(store Store, ttl time.Duration, keyFunc KeyFunc, logger *slog.Logger) gin.HandlerFunc {
	cacheControl := fmt.Sprintf("private, max-age=%d", int(ttl.Seconds()))

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || store == nil || ttl <= 0 {
			c.Next()
			return
		}

		key, ok := keyFunc(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		page, found, err := store.Get(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "page cache read failed", slog.String("scope", key.Scope), slog.Any("error", err))
		}
		if found {
			c.Header("X-Cache", "HIT")
			setCacheHeaders(c.Writer.Header(), cacheControl)
			c.Data(http.StatusOK, "text/html; charset=utf-8", page)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
			cacheControl:   cacheControl,
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() != http.StatusOK ||
			!strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/html") {
			return
		}

		if err := store.Set(ctx, key, writer.body.Bytes(), ttl); err != nil {
			logger.WarnContext(ctx, "page cache write failed", slog.String("scope", key.Scope), slog.Any("error", err))
		}
	}
}

// Never marks a response as not cacheable by browsers or proxies.
func Never() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
		c.Header("Expires", time.Now().UTC().Format(http.TimeFormat))
		c.Next()
	}
}
