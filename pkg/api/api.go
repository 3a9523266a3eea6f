// Package api 汇总HTTP服务的路由注册.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/router"
	"github.com/yeisme/soundvault/pkg/middleware"
)

// RegisterGroup 注册 /api/v1 下的全部路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine) *gin.Engine {
	v1 := e.Group("/api/v1")

	router.RegisterAudioRoutes(v1.Group("/audio"))
	router.RegisterAuthRoutes(v1)
	router.RegisterUserRoutes(v1)
	router.RegisterHealthCheckRoute(v1)

	// 调度器管理接口仅管理员可用
	sched := v1.Group("", middleware.RequireAdmin())
	router.RegisterSchedulerRoutes(sched)

	return e
}
