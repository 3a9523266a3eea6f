// Package model 定义持久化到数据库的业务模型.
package model

import (
	"time"
)

// AudioState 音频对象的生命周期状态.
type AudioState string

const (
	StateLive           AudioState = "live"            // 正常可访问
	StatePendingDelete  AudioState = "pending_delete"  // 已标记删除，等待宽限期结束后清除
	StatePendingReplace AudioState = "pending_replace" // 内容已替换，保留旧 blob 以便回滚
	StateDeleted        AudioState = "deleted"         // 终态，blob 已确认清除，记录可物理删除
)

// AudioCategory 固定的分类枚举.
type AudioCategory string

const (
	CategoryMusic     AudioCategory = "music"
	CategoryPodcast   AudioCategory = "podcast"
	CategoryAudiobook AudioCategory = "audiobook"
	CategoryOther     AudioCategory = "other"
)

// ValidCategory 判断分类是否在枚举范围内.
func ValidCategory(c AudioCategory) bool {
	switch c {
	case CategoryMusic, CategoryPodcast, CategoryAudiobook, CategoryOther:
		return true
	default:
		return false
	}
}

// Audio 托管的音频对象，一条记录对应一个上传资产.
//
// 不变式：
//   - State != deleted 时 CurrentBlobKey 非空
//   - PreviousBlobKey 仅在 State == pending_replace 或由 pending_replace
//     直接转入 pending_delete 时保留
//   - DeletionRequestedAt 非空 当且仅当 State == pending_delete
//   - Version 每次状态变更 +1，提交时做乐观并发校验
type Audio struct {
	ID          string        `gorm:"primaryKey;size:36"  json:"id"`
	OwnerID     string        `gorm:"size:255;index"      json:"owner_id"`
	Title       string        `gorm:"size:512"            json:"title"`
	Description string        `gorm:"type:text"           json:"description"`
	Category    AudioCategory `gorm:"size:64;index"       json:"category"`

	// CurrentBlobKey 当前生效内容的对象键（S3 key）.
	CurrentBlobKey string `gorm:"size:1024" json:"current_blob_key"`
	// PreviousBlobKey 最近一次替换被挤掉的对象键，仅用于回滚.
	PreviousBlobKey string `gorm:"size:1024" json:"previous_blob_key,omitempty"`

	ContentType string `gorm:"size:255" json:"content_type"`
	Size        int64  `json:"size"`

	State AudioState `gorm:"size:32;index:idx_state_requested" json:"state"`
	// DeletionRequestedAt 删除请求时间，restore 时清空.
	DeletionRequestedAt *time.Time `gorm:"index:idx_state_requested" json:"deletion_requested_at,omitempty"`

	// Version 乐观并发版本号，提交时 CAS 校验.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Restorable 记录是否处于可恢复状态.
func (a *Audio) Restorable() bool {
	return a.State == StatePendingDelete || a.State == StatePendingReplace
}
