package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ServiceRateLimitMiddleware caps the request rate of the quoting API as a
// whole. Every caller shares one key, so the limit is not per IP. Rejected
// requests carry a Retry-After header in seconds.
func ServiceRateLimitMiddleware(requestsPerSecond float64, burstSize int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)

	return func(c *gin.Context) {
		if limiter.Allow() {
			c.Next()
			return
		}
		r := limiter.Reserve()
		wait := r.Delay()
		r.Cancel()
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
			Error: "quote service rate limit exceeded",
			Code:  "rate_limited",
		})
	}
}
