package middleware

import (
	"Orion_Tube/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const HeaderRequestID = "X-Request-ID"

// RequestID 透传或生成X-Request-ID，handler日志里可以带上
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// RateLimit 令牌桶限流，整个路由组共享一个桶
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerMinute)/60, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Log.WithField("ip", c.ClientIP()).WithField("path", c.FullPath()).Warn("请求过于频繁，已限流")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
