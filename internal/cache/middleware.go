package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
)

// ResponsePrefix namespaces cached HTTP responses
const ResponsePrefix = "response:"

// generateKey creates a consistent key from the request URL
func generateKey(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%s%x", ResponsePrefix, hash)
}

// Middleware caches successful GET responses of the given routes. Routes are
// gin route patterns as reported by FullPath.
func Middleware(store Store, metrics *monitoring.Metrics, routes ...string) gin.HandlerFunc {
	cached := make(map[string]bool, len(routes))
	for _, r := range routes {
		cached[r] = true
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || !cached[ctx.FullPath()] {
			ctx.Next()
			return
		}

		cacheKey := generateKey(ctx.Request.URL.RequestURI())

		data, found, err := store.Get(ctx.Request.Context(), cacheKey)
		if err != nil {
			slog.Warn("Cache unavailable, serving uncached", "error", err)
		}
		if found {
			slog.Debug("Cache hit", "key", cacheKey)
			metrics.IncrementCacheHit()
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", data)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey)
		metrics.IncrementCacheMiss()

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK {
			if err := store.Set(ctx.Request.Context(), cacheKey, wrapper.body.Bytes()); err != nil {
				slog.Warn("Failed to cache response", "error", err, "key", cacheKey)
			}
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
