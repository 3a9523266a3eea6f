// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/service"
	"github.com/yeisme/soundvault/pkg/internal/storage"
	"github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 按 lifecycle.sweep_interval 执行 Reconciler 扫描（宽限期已过的记录清除）
//   - 按 lifecycle.user_purge_interval 物理清除保留期已过的软删除用户
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)
	cfg := configs.GetConfig().Lifecycle

	// Reconciler 长期持有同一个引擎实例，互斥状态跨触发保持
	reconciler := lifecycle.NewReconciler(
		service.NewAudioService(baseCtx).Engine(),
		*log.Logger(),
	)

	err := sched.AddInterval(JobReconcilerSweep, cfg.SweepIntervalDuration(), func(ctx context.Context) {
		reconciler.Run(ctx)
	}, baseCtx)
	if err != nil {
		return fmt.Errorf("register reconciler sweep: %w", err)
	}

	err = sched.AddInterval(JobUserPurge, cfg.UserPurgeIntervalDuration(), func(ctx context.Context) {
		runUserPurge(ctx)
	}, baseCtx)
	if err != nil {
		return fmt.Errorf("register user purge: %w", err)
	}

	return nil
}

// runUserPurge 清除保留期已过的软删除用户.
func runUserPurge(ctx context.Context) {
	l := log.Logger().With().Str("job", JobUserPurge).Logger()

	retention := configs.GetConfig().Lifecycle.RetentionWindowDuration()
	before := time.Now().UTC().Add(-retention)

	svc := service.NewUserService(ctx)

	if _, err := svc.PurgeDeleted(ctx, before); err != nil {
		l.Error().Err(err).Msg("purge deleted users failed")
	}
}
