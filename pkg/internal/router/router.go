// Package router 管理路由配置，用于设置HTTP服务的路由规则.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/middleware"
)

// RegisterAudioRoutes 注册音频资产与生命周期路由.
// 绑定的路径（假定上层会用 audio := r.Group("/audio")）：
//
//	POST   /                    -> 上传
//	GET    /                    -> 列表
//	GET    /pending-deletion    -> 管理端待删除清单
//	GET    /:id                 -> 查询
//	PUT    /:id                 -> 元数据更新 + 可选内容替换（multipart）
//	PATCH  /:id                 -> 更新元数据（JSON）
//	PUT    /:id/content         -> 仅替换内容
//	POST   /:id/delete          -> 标记删除（宽限期开始）
//	DELETE /:id                 -> 同上
//	POST   /:id/restore         -> 恢复
func RegisterAudioRoutes(group *gin.RouterGroup) {
	group.POST("/", handle.UploadAudio)
	group.GET("/", handle.ListAudio)

	// 静态段先于参数段注册，避免被 :id 吞掉
	group.GET("/pending-deletion", middleware.RequireAdmin(), handle.PendingDeletionAudio)

	group.GET("/:id", handle.GetAudio)
	group.PUT("/:id", handle.PutAudio)
	group.PATCH("/:id", handle.UpdateAudio)
	group.PUT("/:id/content", handle.ReplaceAudio)
	group.POST("/:id/delete", handle.DeleteAudio)
	group.DELETE("/:id", handle.DeleteAudio)
	group.POST("/:id/restore", handle.RestoreAudio)
}
