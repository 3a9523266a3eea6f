package configs

import "github.com/spf13/viper"

// EventsConfig 控制生命周期事件发布的开关（全局与分操作）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Audio   AudioEventsConfig `mapstructure:"audio"`
}

// AudioEventsConfig 针对音频对象生命周期的事件开关。
type AudioEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"`
	Deleted  bool `mapstructure:"deleted"`
	Restored bool `mapstructure:"restored"`
	Replaced bool `mapstructure:"replaced"`
	Purged   bool `mapstructure:"purged"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 默认开启对账与审计需要的事件；restore/replace 按需开启
	v.SetDefault("events.audio.uploaded", true)
	v.SetDefault("events.audio.deleted", true)
	v.SetDefault("events.audio.purged", true)
	v.SetDefault("events.audio.restored", false)
	v.SetDefault("events.audio.replaced", false)
}
