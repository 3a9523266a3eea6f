package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/internal/types"
	"github.com/yeisme/soundvault/pkg/rule"
)

// ListUsers 管理端用户清单.
func ListUsers(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	items, err := svc.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// GetUser 查询用户资料.
func GetUser(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	info, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// UpdateUser 更新用户资料，仅本人或管理员.
func UpdateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewUserService(c.Request.Context())

	info, err := svc.Update(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// DeleteUser 软删除账户，保留期后由后台任务物理清除.
func DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account scheduled for removal"})
}
