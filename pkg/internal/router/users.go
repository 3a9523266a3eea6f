package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/middleware"
)

// RegisterUserRoutes 注册用户资料路由.
func RegisterUserRoutes(g *gin.RouterGroup) {
	userRoutes := g.Group("/users")
	{
		userRoutes.GET("/", middleware.RequireAdmin(), handle.ListUsers)
		userRoutes.GET("/:id", handle.GetUser)
		userRoutes.PATCH("/:id", handle.UpdateUser)
		userRoutes.DELETE("/:id", handle.DeleteUser)
	}
}
