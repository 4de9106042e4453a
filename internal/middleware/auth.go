package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InternalAPIKeyHeader carries the key shared by the CRM and the quote service.
const InternalAPIKeyHeader = "X-Internal-API-Key"

// errorBody matches the error envelope the quote handlers return.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// InternalAuthMiddleware rejects requests whose X-Internal-API-Key does not
// match apiKey. With no key configured every request fails, so a missing
// setting never opens the quoting API.
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
				Error: "server misconfigured: INTERNAL_API_KEY not set",
				Code:  "misconfigured",
			})
		}
	}
	want := []byte(apiKey)

	return func(c *gin.Context) {
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(InternalAPIKeyHeader)), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"})
			return
		}
		c.Next()
	}
}
