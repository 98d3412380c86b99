package cache

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves GET responses from the cache keyed by request URL,
// populating the cache from successful responses. Cache unavailability
// falls through to the handler.
func Middleware(store *Store, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := prefix + ":" + c.Request.URL.RequestURI()
		if data, err := store.GetBytes(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		if c.Writer.Status() == http.StatusOK && capture.buf.Len() > 0 {
			store.SetBytes(c.Request.Context(), key, capture.buf.Bytes())
		}
	}
}
