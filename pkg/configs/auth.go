package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultJWTExpiry     = "1h"
	DefaultResetTokenTTL = "1h"
	DefaultBcryptCost    = 10
	defaultDevJWTSecret  = "dev-only-secret" // 生产环境必须通过配置覆盖
)

// AuthConfig 认证与令牌配置.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"` // 开启认证校验
	// SkipPaths 跳过认证的路径前缀（如 /metrics、/api/v1/health）.
	SkipPaths []string `mapstructure:"skip_paths"`
	// JWTSecret 签发与校验 JWT 的密钥.
	JWTSecret string `mapstructure:"jwt_secret" rule:"required"`
	JWTExpiry string `mapstructure:"jwt_expiry"`
	// ResetTokenTTL 密码重置令牌有效期.
	ResetTokenTTL string `mapstructure:"reset_token_ttl"`
	BcryptCost    int    `mapstructure:"bcrypt_cost" rule:"min=4,max=31"`
}

// JWTExpiryDuration 返回 JWT 有效期.
func (c *AuthConfig) JWTExpiryDuration() time.Duration {
	return parseDurationOr(c.JWTExpiry, DefaultJWTExpiry)
}

// ResetTokenTTLDuration 返回重置令牌有效期.
func (c *AuthConfig) ResetTokenTTLDuration() time.Duration {
	return parseDurationOr(c.ResetTokenTTL, DefaultResetTokenTTL)
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", defaultDevJWTSecret)
	v.SetDefault("auth.jwt_expiry", DefaultJWTExpiry)
	v.SetDefault("auth.reset_token_ttl", DefaultResetTokenTTL)
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/forgot-password",
		"/api/v1/auth/reset-password",
	})
}
