package types

import (
	"time"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// UploadAudioRequest 音频上传的表单字段，文件本体走 multipart 的 file 字段.
type UploadAudioRequest struct {
	Title       string `form:"title"       json:"title"       rule:"required,max=512"`
	Description string `form:"description" json:"description" rule:"max=4096"`
	Category    string `form:"category"    json:"category"    rule:"required,oneof=music podcast audiobook other"`
}

// UpdateAudioRequest 元数据更新（不触碰内容与状态）.
// PATCH 走 JSON，PUT 走 multipart 表单，两套 tag 都要有.
type UpdateAudioRequest struct {
	Title       *string `form:"title"       json:"title,omitempty"       rule:"omitempty,max=512"`
	Description *string `form:"description" json:"description,omitempty" rule:"omitempty,max=4096"`
	Category    *string `form:"category"    json:"category,omitempty"    rule:"omitempty,oneof=music podcast audiobook other"`
}

// Empty 没有任何待更新字段.
func (r *UpdateAudioRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Category == nil
}

// ListAudioRequest 列表过滤条件. OwnerID 仅管理员可用，普通用户只能看自己的.
type ListAudioRequest struct {
	Category string `form:"category" rule:"omitempty,oneof=music podcast audiobook other"`
	OwnerID  string `form:"owner_id" rule:"omitempty,max=255"`
	Page     int    `form:"page"     rule:"omitempty,min=1"`
	PageSize int    `form:"page_size" rule:"omitempty,min=1,max=100"`
}

// AudioInfo 对外暴露的音频记录视图.
type AudioInfo struct {
	ID                  string     `json:"id"`
	OwnerID             string     `json:"owner_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Category            string     `json:"category"`
	ContentType         string     `json:"content_type"`
	Size                int64      `json:"size"`
	State               string     `json:"state"`
	DeletionRequestedAt *time.Time `json:"deletion_requested_at,omitempty"`
	// PurgeAfter 宽限期结束时间，仅在待删除状态给出.
	PurgeAfter *time.Time `json:"purge_after,omitempty"`
	// Restorable 是否还能恢复（待删除或待替换）.
	Restorable bool      `json:"restorable"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListAudioResponse 列表响应.
type ListAudioResponse struct {
	Items []AudioInfo `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
}

// PendingDeletionResponse 管理端待删除清单.
type PendingDeletionResponse struct {
	Items []AudioInfo `json:"items"`
	Total int         `json:"total"`
}

// NewAudioInfo 由模型构造视图，grace 用于计算 PurgeAfter.
func NewAudioInfo(rec model.Audio, grace time.Duration) AudioInfo {
	info := AudioInfo{
		ID:                  rec.ID,
		OwnerID:             rec.OwnerID,
		Title:               rec.Title,
		Description:         rec.Description,
		Category:            string(rec.Category),
		ContentType:         rec.ContentType,
		Size:                rec.Size,
		State:               string(rec.State),
		DeletionRequestedAt: rec.DeletionRequestedAt,
		Restorable:          rec.Restorable(),
		Version:             rec.Version,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}

	if rec.DeletionRequestedAt != nil {
		t := rec.DeletionRequestedAt.Add(grace)
		info.PurgeAfter = &t
	}

	return info
}
