package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultGracePeriod       = "168h" // 删除宽限期，默认 7 天
	DefaultSweepInterval     = "1m"   // Reconciler 扫描间隔
	DefaultPurgeTimeout      = "30s"  // 单条记录清除的独立超时
	DefaultBlobRetryMax      = 3      // blob 调用最大尝试次数
	DefaultBlobRetryInterval = "200ms"
	DefaultUserPurgeInterval = "10m"  // 软删用户的清除间隔
	DefaultRetentionWindow   = "168h" // pending-deletion 管理列表的回看窗口
)

// LifecycleConfig 延迟删除/替换生命周期引擎配置.
type LifecycleConfig struct {
	GracePeriod       string `mapstructure:"grace_period"        rule:"required"`
	SweepInterval     string `mapstructure:"sweep_interval"      rule:"required"`
	PurgeTimeout      string `mapstructure:"purge_timeout"`
	BlobRetryMax      uint   `mapstructure:"blob_retry_max"      rule:"min=1,max=10"`
	BlobRetryInterval string `mapstructure:"blob_retry_interval"`
	UserPurgeInterval string `mapstructure:"user_purge_interval"`
	RetentionWindow   string `mapstructure:"retention_window"`
}

// GracePeriodDuration 返回解析后的宽限期，解析失败回退默认值.
func (c *LifecycleConfig) GracePeriodDuration() time.Duration {
	return parseDurationOr(c.GracePeriod, DefaultGracePeriod)
}

// SweepIntervalDuration 返回 Reconciler 扫描间隔.
func (c *LifecycleConfig) SweepIntervalDuration() time.Duration {
	return parseDurationOr(c.SweepInterval, DefaultSweepInterval)
}

// PurgeTimeoutDuration 返回单条清除超时.
func (c *LifecycleConfig) PurgeTimeoutDuration() time.Duration {
	return parseDurationOr(c.PurgeTimeout, DefaultPurgeTimeout)
}

// BlobRetryIntervalDuration 返回重试初始间隔.
func (c *LifecycleConfig) BlobRetryIntervalDuration() time.Duration {
	return parseDurationOr(c.BlobRetryInterval, DefaultBlobRetryInterval)
}

// UserPurgeIntervalDuration 返回用户清除任务间隔.
func (c *LifecycleConfig) UserPurgeIntervalDuration() time.Duration {
	return parseDurationOr(c.UserPurgeInterval, DefaultUserPurgeInterval)
}

// RetentionWindowDuration 返回管理端 pending-deletion 列表回看窗口.
func (c *LifecycleConfig) RetentionWindowDuration() time.Duration {
	return parseDurationOr(c.RetentionWindow, DefaultRetentionWindow)
}

func parseDurationOr(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}

	d, _ := time.ParseDuration(fallback)

	return d
}

// setDefaults 设置生命周期配置的默认值.
func (c *LifecycleConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("lifecycle.grace_period", DefaultGracePeriod)
	v.SetDefault("lifecycle.sweep_interval", DefaultSweepInterval)
	v.SetDefault("lifecycle.purge_timeout", DefaultPurgeTimeout)
	v.SetDefault("lifecycle.blob_retry_max", DefaultBlobRetryMax)
	v.SetDefault("lifecycle.blob_retry_interval", DefaultBlobRetryInterval)
	v.SetDefault("lifecycle.user_purge_interval", DefaultUserPurgeInterval)
	v.SetDefault("lifecycle.retention_window", DefaultRetentionWindow)
}
