// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/middleware"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// currentActor 取认证中间件解析出的操作者身份.
func currentActor(c *gin.Context) (lifecycle.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return lifecycle.Actor{}, false
	}

	return actor, true
}

// requireAdmin 管理员专用入口的守卫.
func requireAdmin(c *gin.Context) (lifecycle.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return lifecycle.Actor{}, false
	}

	if !actor.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return lifecycle.Actor{}, false
	}

	return actor, true
}

// writeServiceError 把服务层错误映射为 HTTP 状态码.
// 确定性错误（404/403/400/409）原样传达，其余按上游故障处理.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, lifecycle.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, lifecycle.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, retry"})
	case errors.Is(err, lifecycle.ErrUnsupportedMedia):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
	case errors.Is(err, service.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset token invalid or expired"})
	case errors.Is(err, lifecycle.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
