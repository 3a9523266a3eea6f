package types

// RegisterRequest 注册请求.
type RegisterRequest struct {
	Username string `json:"username" rule:"required,min=3,max=255"`
	Email    string `json:"email"    rule:"required,email"`
	Password string `json:"password" rule:"required,min=8,max=72"`
}

// LoginRequest 登录请求，用户名或邮箱二选一.
type LoginRequest struct {
	Username string `json:"username" rule:"omitempty,max=255"`
	Email    string `json:"email"    rule:"omitempty,email"`
	Password string `json:"password" rule:"required"`
}

// TokenResponse 签发的访问令牌.
type TokenResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expires_in"` // 秒
	User      UserInfo `json:"user"`
}

// ForgotPasswordRequest 请求密码重置令牌.
type ForgotPasswordRequest struct {
	Email string `json:"email" rule:"required,email"`
}

// ResetPasswordRequest 凭重置令牌设置新密码.
type ResetPasswordRequest struct {
	Token    string `json:"token"    rule:"required"`
	Password string `json:"password" rule:"required,min=8,max=72"`
}
