package ident

import (
	"github.com/gin-gonic/gin"

	"github.com/yunhan/payidem/zlog"
)

// ClaimsKey Gin Context 中存放 Claims 的键
const ClaimsKey = "ident.claims"

// GinMiddleware 返回 Gin 身份解析中间件
func (v *jwtVerifier) GinMiddleware() any {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		claims, err := v.ValidateToken(c.Request.Context(), token)
		if err != nil {
			// 身份解析失败不阻断请求，后续按匿名处理
			v.logger.Debug("token validation failed", zlog.Error(err))
			c.Next()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetClaims 从 Gin Context 获取 Claims
func GetClaims(c *gin.Context) (*Claims, bool) {
	val, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

// EmployeeID 返回当前请求的员工 ID，未登录返回空串
func EmployeeID(c *gin.Context) string {
	claims, ok := GetClaims(c)
	if !ok {
		return ""
	}
	return claims.Identity()
}
