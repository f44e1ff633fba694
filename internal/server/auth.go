package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared token when Authorization is not used.
const APIKeyHeader = "X-API-Key"

// requireToken rejects requests that do not present token, either as
// "Authorization: Bearer <token>" or in the X-API-Key header.
func requireToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if got == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				got = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Details: "Authentication required"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Details: "Invalid API token"})
			return
		}
		c.Next()
	}
}
