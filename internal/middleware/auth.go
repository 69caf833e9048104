// Package middleware 提供 HTTP 中间件
package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/jwt"
	"github.com/dumeirei/pg-manager-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
	ContextKeyClaims = "claims"
)

// Auth 认证中间件，role 为空时任何已登录用户都可访问
func Auth(jwtManager *jwt.Manager, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "Please log in")
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, "Session has expired, please log in again")
			} else {
				response.Unauthorized(c, "Invalid token")
			}
			c.Abort()
			return
		}

		if role != "" && claims.Role != role {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// AdminAuth 管理员认证中间件
func AdminAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(jwtManager, jwt.RoleAdmin)
}

// TenantAuth 租客认证中间件
func TenantAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(jwtManager, jwt.RoleTenant)
}

// CronAuth 定时任务入口鉴权，enabled 为 false 或 secret 为空时放行
func CronAuth(enabled bool, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || secret == "" {
			c.Next()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.Unauthorized(c, "Invalid cron secret")
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	if token := bearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}

	// 导出等下载类接口通过查询参数携带
	if token := c.Query("token"); token != "" {
		return token
	}

	token, _ := c.Cookie("token")
	return token
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	id, _ := userID.(int64)
	return id
}

// GetRole 从上下文获取角色
func GetRole(c *gin.Context) string {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	r, _ := role.(string)
	return r
}
