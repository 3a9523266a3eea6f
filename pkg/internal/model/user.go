package model

import (
	"time"

	"gorm.io/gorm"
)

// UserRole 用户角色.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User 账户模型，密码仅存 bcrypt 哈希.
type User struct {
	ID       string   `gorm:"primaryKey;size:36"       json:"id"`
	Username string   `gorm:"size:255;uniqueIndex"     json:"username"`
	Email    string   `gorm:"size:255;uniqueIndex"     json:"email"`
	Password string   `gorm:"size:255"                 json:"-"`
	Role     UserRole `gorm:"size:32;default:user"     json:"role"`

	// 密码重置令牌（SHA-256 哈希存储）与过期时间.
	ResetPasswordToken   string     `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin 是否管理员.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
