package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"payload": strings.Repeat("kessel ", 200)})
	})
	r.GET("/png", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", []byte("not really a png"))
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "up 1")
	})
	r.DELETE("/json", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, method, path string, gzipped bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if gzipped {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompressionGzipsJSON(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	w := get(newRouter(cm), http.MethodGet, "/json", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"payload":"kessel kessel`)

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["compressed_bytes"].(int64), stats["total_bytes"].(int64))
}

func TestCompressionSkips(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newRouter(cm)

	tests := []struct {
		name    string
		method  string
		path    string
		gzipped bool
	}{
		{"client without gzip", http.MethodGet, "/json", false},
		{"incompressible type", http.MethodGet, "/png", true},
		{"excluded path", http.MethodGet, "/metrics", true},
		{"no content", http.MethodDelete, "/json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.method, tt.path, tt.gzipped)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}

	w := get(r, http.MethodGet, "/png", true)
	assert.Equal(t, "not really a png", w.Body.String())
	assert.Equal(t, int64(0), cm.GetStats()["compressed_requests"])
}

func TestCompressionDecidesAfterContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := gin.New()
	r.Use(cm.Handler())
	r.POST("/created", func(c *gin.Context) {
		c.Status(http.StatusCreated)
		c.Header("Content-Type", "application/json")
		_, _ = c.Writer.Write([]byte(`{"id":"falcon"}`))
	})
	r.GET("/missing", func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "widget not found"})
	})

	tests := []struct {
		name   string
		method string
		path   string
		code   int
		body   string
	}{
		{"status set before content type", http.MethodPost, "/created", http.StatusCreated, `{"id":"falcon"}`},
		{"aborted json", http.MethodGet, "/missing", http.StatusNotFound, `"widget not found"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.method, tt.path, true)
			require.Equal(t, tt.code, w.Code)
			require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

			zr, err := gzip.NewReader(w.Body)
			require.NoError(t, err)
			body, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.body)
		})
	}
}
