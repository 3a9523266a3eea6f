package lifecycle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/soundvault/pkg/metrics"
)

// Reconciler 周期性地把宽限期已过的 pending_delete 记录收敛为已清除.
// 自身只持有"是否正在运行"这一个状态：定时器触发时若上一轮还没结束，
// 本轮直接跳过，绝不并发扫描.
type Reconciler struct {
	engine  *Engine
	log     zerolog.Logger
	running atomic.Bool

	// now 可注入，测试用假时钟.
	now func() time.Time
}

// NewReconciler 创建 Reconciler.
func NewReconciler(engine *Engine, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		engine: engine,
		log:    log,
		now:    time.Now,
	}
}

// Run 执行一轮扫描. 若上一轮仍在执行则立即返回 false（互斥跳过）；
// 扫描中的失败从不向任何用户暴露，只记日志，等下一轮重试.
func (r *Reconciler) Run(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Debug().Msg("previous sweep still running, skipping")
		return false
	}
	defer r.running.Store(false)

	start := r.now()

	purged, err := r.engine.PurgeEligible(ctx, start)
	if err != nil {
		r.log.Error().Err(err).Msg("reconciler sweep failed")
		return true
	}

	metrics.ReconcilerSweeps.Inc()

	if purged > 0 {
		r.log.Info().Int("purged", purged).Dur("took", time.Since(start)).Msg("reconciler sweep done")
	}

	return true
}

// Running 当前是否有扫描在执行.
func (r *Reconciler) Running() bool {
	return r.running.Load()
}
