package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/db"
)

// audioRepository 基于 GORM 的 lifecycle.Repository 实现.
// 乐观并发通过 WHERE id = ? AND version = ? 的条件更新实现，
// 不依赖数据库级事务隔离.
type audioRepository struct {
	db *db.Client
}

// NewAudioRepository 创建音频元数据仓储.
func NewAudioRepository(dbc *db.Client) lifecycle.Repository {
	return &audioRepository{db: dbc}
}

func (r *audioRepository) Get(ctx context.Context, id string) (model.Audio, error) {
	var rec model.Audio

	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Audio{}, lifecycle.ErrNotFound
	}

	if err != nil {
		return model.Audio{}, fmt.Errorf("query audio %s: %w", id, err)
	}

	return rec, nil
}

func (r *audioRepository) FindPurgeable(ctx context.Context, before time.Time) ([]model.Audio, error) {
	var records []model.Audio

	err := r.db.WithContext(ctx).
		Where("state = ? AND deletion_requested_at IS NOT NULL AND deletion_requested_at <= ?",
			model.StatePendingDelete, before).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query purgeable audio: %w", err)
	}

	return records, nil
}

func (r *audioRepository) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, rec model.Audio) error {
	// Select 全列覆盖写，保证清空的字段（如 DeletionRequestedAt）也被提交.
	res := r.db.WithContext(ctx).
		Model(&model.Audio{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(&rec)
	if res.Error != nil {
		return fmt.Errorf("commit audio %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return lifecycle.ErrVersionConflict
	}

	return nil
}

func (r *audioRepository) Remove(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Audio{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("remove audio %s: %w", id, res.Error)
	}

	return nil
}
