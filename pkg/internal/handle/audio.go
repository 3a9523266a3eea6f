package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/internal/types"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/rule"
)

// UploadAudio 上传音频：multipart 表单，file 字段承载音频内容.
// 内容类型与大小按配置白名单校验.
func UploadAudio(c *gin.Context) {
	l := log.Logger()

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req types.UploadAudioRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form fields"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, size, contentType, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer func() { _ = f.Close() }()

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.Upload(c.Request.Context(), actor.ID, req, f, size, contentType)
	if err != nil {
		l.Error().Err(err).Msg("upload audio failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusCreated, info)
}

// ListAudio 列出音频：普通用户看自己的，管理员看全部（可按 owner_id 过滤）.
// 待删除记录仍可见.
func ListAudio(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req types.ListAudioRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	svc := service.NewAudioService(c.Request.Context())

	res, err := svc.List(c.Request.Context(), actor, req)
	if err != nil {
		log.Logger().Error().Err(err).Msg("list audio failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// GetAudio 查询单条记录.
func GetAudio(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// UpdateAudio 更新标题/描述/分类，不触碰内容与状态.
func UpdateAudio(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req types.UpdateAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.UpdateMeta(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
