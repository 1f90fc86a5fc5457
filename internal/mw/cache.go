package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type recordingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves repeated GETs for the same URI from store for ttl. Only 2xx
// responses are kept. Requests carrying credentials bypass the cache, since
// their bodies depend on who is asking.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, found := store.Get(key); found {
			cached := v.(cachedResponse)
			for k, vals := range cached.headers {
				c.Writer.Header()[k] = vals
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		rw := &recordingWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = rw
		c.Header("X-Cache", "MISS")

		c.Next()

		if status := rw.Status(); status >= 200 && status < 300 {
			headers := rw.Header().Clone()
			headers.Del("X-Cache")
			headers.Del(RequestIDHeader)
			store.Set(key, cachedResponse{status: status, headers: headers, body: rw.body.Bytes()}, ttl)
		}
	}
}
