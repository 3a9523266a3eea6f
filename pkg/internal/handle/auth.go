package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/internal/types"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/rule"
)

// Register 注册新用户并签发令牌.
func Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	res, err := svc.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// Login 校验凭证并签发令牌.
func Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	res, err := svc.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Me 返回当前令牌对应的用户.
func Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	svc := service.NewUserService(c.Request.Context())

	info, err := svc.Get(c.Request.Context(), actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// ForgotPassword 生成密码重置令牌. 无论邮箱是否注册都返回 200，
// 避免探测注册状态；令牌经日志外投递（演示环境直接回显）.
func ForgotPassword(c *gin.Context) {
	var req types.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	token, err := svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		log.Logger().Error().Err(err).Msg("forgot password failed")
		writeServiceError(c, err)

		return
	}

	resp := gin.H{"message": "if the email is registered, a reset token has been issued"}
	// 没有邮件通道时直接回显令牌，方便联调. 生产部署应接入投递服务.
	if token != "" && gin.Mode() != gin.ReleaseMode {
		resp["reset_token"] = token
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword 凭重置令牌设置新密码.
func ResetPassword(c *gin.Context) {
	var req types.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewAuthService(c.Request.Context())

	if err := svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
