package types

import (
	"time"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// UserInfo 对外暴露的用户视图.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUserRequest 用户资料更新.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" rule:"omitempty,min=3,max=255"`
	Email    *string `json:"email,omitempty"    rule:"omitempty,email"`
}

// NewUserInfo 由模型构造视图.
func NewUserInfo(u model.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
