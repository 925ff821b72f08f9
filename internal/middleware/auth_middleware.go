package middleware

import (
	"Orion_Tube/pkg/auth"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// context里存放当前用户的key，userID是uint64
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// 必须登录：1、取出Authorization头 2、校验"Bearer [token]"格式 3、用secretKey验证token 4、用户信息放入context
func AuthMiddleware(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权令牌"})
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "授权令牌格式不正确"})
			return
		}

		claims, err := auth.ParseToken(secretKey, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权令牌"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// 可选登录：带了合法token就设置用户，其他情况一律当匿名用户放行
func OptionalAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := auth.ParseToken(secretKey, tokenString); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextUsername, claims.Username)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CurrentUserID 取出中间件放入的userID
func CurrentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	userID, ok := v.(uint64)
	return userID, ok
}
