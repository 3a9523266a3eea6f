package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 音频生命周期领域 --------------------------

// AudioRef 标识一条音频记录及其在对象存储中的位置.
type AudioRef struct {
	AudioID     string `json:"audio_id"`
	OwnerID     string `json:"owner_id"`
	BlobKey     string `json:"blob_key,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Title       string `json:"title,omitempty"`
	Category    string `json:"category,omitempty"`
}

// AudioUploadedPayload 音频上传完成（blob 已写入、元数据已落库）.
type AudioUploadedPayload struct {
	Audio AudioRef `json:"audio"`
}

// AudioDeletedPayload 音频进入待删除状态.
type AudioDeletedPayload struct {
	Audio AudioRef `json:"audio"`
	// DeletionRequestedAt 宽限期起点（UTC，RFC3339）.
	DeletionRequestedAt time.Time `json:"deletion_requested_at"`
	// PurgeAfter 预计可清除时间.
	PurgeAfter time.Time `json:"purge_after"`
}

// AudioRestoredPayload 音频在宽限期内被恢复.
type AudioRestoredPayload struct {
	Audio AudioRef `json:"audio"`
	// RestoredToReplace 恢复后回到待替换状态（仍保有恢复点）.
	RestoredToReplace bool `json:"restored_to_replace,omitempty"`
}

// AudioReplacedPayload 音频内容被替换.
type AudioReplacedPayload struct {
	Audio AudioRef `json:"audio"`
	// PreviousBlobKey 被替换内容的 blob，保留为恢复点.
	PreviousBlobKey string `json:"previous_blob_key,omitempty"`
}

// AudioPurgedPayload 记录与 blob 已彻底清除.
type AudioPurgedPayload struct {
	AudioID string `json:"audio_id"`
	OwnerID string `json:"owner_id"`
	// PurgedBlobKeys 连同记录一起删除的 blob 键.
	PurgedBlobKeys []string `json:"purged_blob_keys,omitempty"`
}

// -------------------------- 用户领域 --------------------------

// UserRef 标识一个用户.
type UserRef struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UserRegisteredPayload 新用户注册.
type UserRegisteredPayload struct {
	User UserRef `json:"user"`
}

// UserDeletedPayload 用户软删除（进入保留期）.
type UserDeletedPayload struct {
	User      UserRef   `json:"user"`
	DeletedAt time.Time `json:"deleted_at"`
}

// UserPurgedPayload 软删除用户被彻底清除.
type UserPurgedPayload struct {
	UserID string `json:"user_id"`
}
