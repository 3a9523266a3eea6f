package service

import (
	"context"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/queue"
)

const eventProducer = "soundvault"

// lifecycleEvents 把引擎的迁移结果翻译成领域事件并投递到 MQ.
// 发布失败只记日志：事件是旁路能力，不回滚已提交的迁移.
type lifecycleEvents struct {
	mq  *mq.Client
	cfg configs.EventsConfig
}

// newLifecycleEvents 创建事件发布适配器. mqc 为 nil 或配置关闭时返回 nil，
// 引擎对 nil Publisher 直接跳过发布.
func newLifecycleEvents(mqc *mq.Client, cfg configs.EventsConfig) *lifecycleEvents {
	if mqc == nil || !cfg.Enabled {
		return nil
	}

	return &lifecycleEvents{mq: mqc, cfg: cfg}
}

func (p *lifecycleEvents) PublishLifecycle(ctx context.Context, op lifecycle.Operation, rec model.Audio) {
	var err error

	ref := queue.AudioRef{
		AudioID:     rec.ID,
		OwnerID:     rec.OwnerID,
		BlobKey:     rec.CurrentBlobKey,
		ContentType: rec.ContentType,
		Size:        rec.Size,
		Title:       rec.Title,
		Category:    string(rec.Category),
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(eventProducer)}

	switch op {
	case lifecycle.OpDelete:
		if !p.cfg.Audio.Deleted || rec.DeletionRequestedAt == nil {
			return
		}

		grace := configs.GetConfig().Lifecycle.GracePeriodDuration()
		err = queue.PublishAudioDeleted(p.mq.Publisher(), queue.AudioDeletedPayload{
			Audio:               ref,
			DeletionRequestedAt: *rec.DeletionRequestedAt,
			PurgeAfter:          rec.DeletionRequestedAt.Add(grace),
		}, opts...)

	case lifecycle.OpRestore:
		if !p.cfg.Audio.Restored {
			return
		}

		err = queue.PublishAudioRestored(p.mq.Publisher(), queue.AudioRestoredPayload{
			Audio:             ref,
			RestoredToReplace: rec.State == model.StatePendingReplace,
		}, opts...)

	case lifecycle.OpReplace:
		if !p.cfg.Audio.Replaced {
			return
		}

		err = queue.PublishAudioReplaced(p.mq.Publisher(), queue.AudioReplacedPayload{
			Audio:           ref,
			PreviousBlobKey: rec.PreviousBlobKey,
		}, opts...)

	case lifecycle.OpPurge:
		if !p.cfg.Audio.Purged {
			return
		}

		err = queue.PublishAudioPurged(p.mq.Publisher(), queue.AudioPurgedPayload{
			AudioID: rec.ID,
			OwnerID: rec.OwnerID,
		}, opts...)
	}

	if err != nil {
		log := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		log.Warn().Err(err).Str("op", string(op)).Str("id", rec.ID).Msg("publish lifecycle event failed")
	}
}

// publishUploaded 上传完成事件，独立于生命周期引擎（上传不是状态迁移）.
func (p *lifecycleEvents) publishUploaded(ctx context.Context, rec model.Audio) {
	if p == nil || !p.cfg.Audio.Uploaded {
		return
	}

	err := queue.PublishAudioUploaded(p.mq.Publisher(), queue.AudioUploadedPayload{
		Audio: queue.AudioRef{
			AudioID:     rec.ID,
			OwnerID:     rec.OwnerID,
			BlobKey:     rec.CurrentBlobKey,
			ContentType: rec.ContentType,
			Size:        rec.Size,
			Title:       rec.Title,
			Category:    string(rec.Category),
		},
	}, queue.WithProducer(eventProducer))
	if err != nil {
		log := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		log.Warn().Err(err).Str("id", rec.ID).Msg("publish upload event failed")
	}
}
