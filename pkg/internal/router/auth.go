package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/handle"
)

// RegisterAuthRoutes 注册认证相关路由.
func RegisterAuthRoutes(g *gin.RouterGroup) {
	authRoutes := g.Group("/auth")
	{
		authRoutes.POST("/register", handle.Register)
		authRoutes.POST("/login", handle.Login)
		authRoutes.GET("/me", handle.Me)
		authRoutes.POST("/forgot-password", handle.ForgotPassword)
		authRoutes.POST("/reset-password", handle.ResetPassword)
	}
}
