package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxJSONSize caps control API request bodies. Embed requests are a
// rectangle and a handle, so anything larger is a client bug.
const MaxJSONSize = 64 * 1024

// BodyLimit rejects requests whose declared length exceeds max and caps the
// reader for requests that do not declare one.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "request body too large",
				"kind":  "too_large",
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
