package service

import (
	"context"
	"time"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/queue"
)

// userEvents 用户域事件投递，发布失败只记日志.
type userEvents struct {
	mq *mq.Client
}

// newUserEvents mqc 为 nil 或事件系统关闭时返回 nil，调用方对 nil 安全.
func newUserEvents(mqc *mq.Client, cfg configs.EventsConfig) *userEvents {
	if mqc == nil || !cfg.Enabled {
		return nil
	}

	return &userEvents{mq: mqc}
}

func (p *userEvents) publishRegistered(ctx context.Context, user model.User) {
	if p == nil {
		return
	}

	err := queue.PublishUserRegistered(p.mq.Publisher(), queue.UserRegisteredPayload{
		User: queue.UserRef{UserID: user.ID, Username: user.Username, Email: user.Email},
	}, queue.WithProducer(eventProducer))
	if err != nil {
		log := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		log.Warn().Err(err).Str("id", user.ID).Msg("publish user registered event failed")
	}
}

func (p *userEvents) publishDeleted(ctx context.Context, userID string, deletedAt time.Time) {
	if p == nil {
		return
	}

	err := queue.PublishUserDeleted(p.mq.Publisher(), queue.UserDeletedPayload{
		User:      queue.UserRef{UserID: userID},
		DeletedAt: deletedAt,
	}, queue.WithProducer(eventProducer))
	if err != nil {
		log := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		log.Warn().Err(err).Str("id", userID).Msg("publish user deleted event failed")
	}
}

func (p *userEvents) publishPurged(ctx context.Context, userID string) {
	if p == nil {
		return
	}

	err := queue.PublishUserPurged(p.mq.Publisher(), queue.UserPurgedPayload{
		UserID: userID,
	}, queue.WithProducer(eventProducer))
	if err != nil {
		log := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
		log.Warn().Err(err).Str("id", userID).Msg("publish user purged event failed")
	}
}
