// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：sv.<域>.<动作>，尽量稳定且向后兼容.
// 域：audio(音频对象)、user(用户)
// 动作：uploaded/deleted/restored/replaced/purged 等生命周期事件

const (
	// 音频生命周期领域.
	TopicAudioUploaded = "sv.audio.uploaded" // 音频上传完成，元数据已落库
	TopicAudioDeleted  = "sv.audio.deleted"  // 音频进入待删除状态（宽限期开始）
	TopicAudioRestored = "sv.audio.restored" // 音频在宽限期内被恢复
	TopicAudioReplaced = "sv.audio.replaced" // 音频内容被替换（旧内容进入恢复点）
	TopicAudioPurged   = "sv.audio.purged"   // 宽限期结束，记录与 blob 已彻底清除

	// 用户领域.
	TopicUserRegistered = "sv.user.registered" // 新用户注册
	TopicUserDeleted    = "sv.user.deleted"    // 用户软删除
	TopicUserPurged     = "sv.user.purged"     // 软删除用户被彻底清除
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 音频生命周期相关主题集合.
	AudioTopics = []string{
		TopicAudioUploaded, TopicAudioDeleted, TopicAudioRestored,
		TopicAudioReplaced, TopicAudioPurged,
	}

	// 用户相关主题集合.
	UserTopics = []string{
		TopicUserRegistered, TopicUserDeleted, TopicUserPurged,
	}
)
