package handle

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/internal/types"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/rule"
)

// DeleteAudio 标记删除：记录进入宽限期，内容仍可恢复.
// 已在宽限期内的记录幂等返回当前状态.
func DeleteAudio(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.RequestDelete(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// RestoreAudio 宽限期内恢复，或把替换换回上一个内容.
func RestoreAudio(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.Restore(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// ReplaceAudio 替换音频内容：multipart 的 file 字段承载新内容，
// 旧内容保留为恢复点. 新内容先上传成功才会提交元数据.
func ReplaceAudio(c *gin.Context) {
	l := log.Logger()

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	f, size, contentType, ok := openUploadFile(c)
	if !ok {
		return
	}
	defer func() { _ = f.Close() }()

	svc := service.NewAudioService(c.Request.Context())

	info, err := svc.Replace(c.Request.Context(), c.Param("id"), actor, f, size, contentType, nil)
	if err != nil {
		l.Error().Err(err).Str("id", c.Param("id")).Msg("replace audio failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}

// PutAudio 整体更新：multipart 表单，元数据字段可选，file 字段可选.
// 携带 file 时元数据与内容替换在同一次提交中生效，不会出现只改了一半的记录.
func PutAudio(c *gin.Context) {
	l := log.Logger()

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req types.UpdateAudioRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form fields"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAudioService(c.Request.Context())
	id := c.Param("id")

	fh, ferr := c.FormFile("file")
	if ferr != nil {
		// 没有新内容，纯元数据更新
		if req.Empty() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
			return
		}

		info, err := svc.UpdateMeta(c.Request.Context(), id, actor, req)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, info)

		return
	}

	f, size, contentType, ok := validateUploadFile(c, fh)
	if !ok {
		return
	}
	defer func() { _ = f.Close() }()

	info, err := svc.Replace(c.Request.Context(), id, actor, f, size, contentType, &req)
	if err != nil {
		l.Error().Err(err).Str("id", id).Msg("replace audio failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}

// openUploadFile 取 multipart 的 file 字段并做类型与大小校验.
// 失败时已写响应，返回 ok=false.
func openUploadFile(c *gin.Context) (io.ReadCloser, int64, string, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return nil, 0, "", false
	}

	return validateUploadFile(c, fh)
}

func validateUploadFile(c *gin.Context, fh *multipart.FileHeader) (io.ReadCloser, int64, string, bool) {
	upload := configs.GetConfig().Upload

	contentType := fh.Header.Get("Content-Type")
	if !upload.TypeAllowed(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported audio type: " + contentType})
		return nil, 0, "", false
	}

	if fh.Size > upload.MaxSizeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return nil, 0, "", false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return nil, 0, "", false
	}

	return f, fh.Size, contentType, true
}

// PendingDeletionAudio 管理端清单：回看窗口内进入待删除的记录.
func PendingDeletionAudio(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	window := configs.GetConfig().Lifecycle.RetentionWindowDuration()
	svc := service.NewAudioService(c.Request.Context())

	res, err := svc.PendingDeletion(c.Request.Context(), window)
	if err != nil {
		log.Logger().Error().Err(err).Msg("list pending deletion failed")
		writeServiceError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}
