package configs

import "github.com/spf13/viper"

const (
	// DefaultUploadMaxSize 上传大小上限（50 MiB）.
	DefaultUploadMaxSize = 50 * 1024 * 1024
)

// UploadConfig 上传限制配置.
type UploadConfig struct {
	MaxSizeBytes int64    `mapstructure:"max_size_bytes" rule:"min=1"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// TypeAllowed 判断内容类型是否在白名单内.
func (c *UploadConfig) TypeAllowed(contentType string) bool {
	for _, t := range c.AllowedTypes {
		if t == contentType {
			return true
		}
	}

	return false
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_size_bytes", DefaultUploadMaxSize)
	v.SetDefault("upload.allowed_types", []string{
		"audio/mpeg",
		"audio/wav",
		"audio/mp4",
	})
}
