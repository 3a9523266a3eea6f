package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/metrics"
)

// Repository 元数据仓储：对象记录的唯一权威存储.
type Repository interface {
	// Get 按 id 查询记录，不存在时返回 ErrNotFound.
	Get(ctx context.Context, id string) (model.Audio, error)
	// FindPurgeable 查询 state == pending_delete 且删除请求早于 before 的记录.
	FindPurgeable(ctx context.Context, before time.Time) ([]model.Audio, error)
	// CompareAndSwap 以期望版本提交新记录，版本不匹配返回 ErrVersionConflict.
	CompareAndSwap(ctx context.Context, id string, expectedVersion int64, rec model.Audio) error
	// Remove 物理删除记录，仅在 blob 确认清除后调用.
	Remove(ctx context.Context, id string) error
}

// BlobStore 对象存储适配器，调用间无事务保证.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Actor 操作者身份，由认证层解析后传入.
type Actor struct {
	ID    string
	Admin bool
}

// Publisher 生命周期事件发布（可为 nil，发布失败不影响操作结果）.
type Publisher interface {
	PublishLifecycle(ctx context.Context, op Operation, rec model.Audio)
}

// Payload 替换操作的新内容. Meta 非 nil 时，元数据修改与内容替换
// 在同一次 CAS 提交中生效.
type Payload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Meta        *MetaPatch
}

// Config 引擎配置.
type Config struct {
	// GracePeriod 记录在 pending_delete 停留的最短时长.
	GracePeriod time.Duration
	// PurgeTimeout 单条记录清除的独立超时，避免一个卡住的 blob 拖住整轮扫描.
	PurgeTimeout time.Duration
	// BlobRetryMax 每次 blob 调用的最大尝试次数.
	BlobRetryMax uint
	// BlobRetryInterval 重试退避的初始间隔.
	BlobRetryInterval time.Duration
}

// Engine 生命周期引擎：把状态机的迁移计划落到两个互不联动的存储上.
// 提交顺序规则：replace 先上传后提交（上传失败不碰元数据）；delete 推迟
// blob 删除到 Reconciler；purge 先删 blob 再提交终态.
type Engine struct {
	repo   Repository
	blobs  BlobStore
	events Publisher
	cfg    Config
	log    zerolog.Logger

	// now 可注入，测试用假时钟.
	now func() time.Time
	// newKey 可注入，测试用确定性键.
	newKey func(rec model.Audio) string
}

// NewEngine 创建引擎. events 可为 nil.
func NewEngine(repo Repository, blobs BlobStore, events Publisher, cfg Config, log zerolog.Logger) *Engine {
	if cfg.BlobRetryMax == 0 {
		cfg.BlobRetryMax = 3
	}

	if cfg.BlobRetryInterval <= 0 {
		cfg.BlobRetryInterval = 200 * time.Millisecond
	}

	if cfg.PurgeTimeout <= 0 {
		cfg.PurgeTimeout = 30 * time.Second
	}

	return &Engine{
		repo:   repo,
		blobs:  blobs,
		events: events,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		newKey: defaultBlobKey,
	}
}

// defaultBlobKey 生成新 blob 的对象键：owner/audio/<uuid>.
func defaultBlobKey(rec model.Audio) string {
	return fmt.Sprintf("%s/audio/%s", rec.OwnerID, uuid.NewString())
}

// authorize 所有者或管理员放行，其余拒绝. 在状态机之前执行.
func authorize(actor Actor, rec model.Audio) error {
	if actor.Admin || actor.ID == rec.OwnerID {
		return nil
	}

	return ErrUnauthorized
}

// RequestDelete 标记删除：记录进入 pending_delete，blob 保持可读，
// 真正的清除由 Reconciler 在宽限期后执行.
func (e *Engine) RequestDelete(ctx context.Context, id string, actor Actor) (model.Audio, error) {
	rec, err := e.repo.Get(ctx, id)
	if err != nil {
		return model.Audio{}, err
	}

	if err := authorize(actor, rec); err != nil {
		return model.Audio{}, err
	}

	plan, err := Transition(rec, Input{Op: OpDelete, Now: e.now()})
	if err != nil {
		return model.Audio{}, err
	}

	if plan.Noop {
		return rec, nil
	}

	if err := e.repo.CompareAndSwap(ctx, rec.ID, rec.Version, plan.Next); err != nil {
		metrics.LifecycleConflicts.WithLabelValues(string(OpDelete)).Inc()
		return model.Audio{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(OpDelete)).Inc()
	e.publish(ctx, OpDelete, plan.Next)

	return plan.Next, nil
}

// Restore 恢复：撤销删除标记，或把替换换回上一个内容（幂等交换）.
func (e *Engine) Restore(ctx context.Context, id string, actor Actor) (model.Audio, error) {
	rec, err := e.repo.Get(ctx, id)
	if err != nil {
		return model.Audio{}, err
	}

	if err := authorize(actor, rec); err != nil {
		return model.Audio{}, err
	}

	plan, err := Transition(rec, Input{Op: OpRestore, Now: e.now()})
	if err != nil {
		return model.Audio{}, err
	}

	if err := e.repo.CompareAndSwap(ctx, rec.ID, rec.Version, plan.Next); err != nil {
		metrics.LifecycleConflicts.WithLabelValues(string(OpRestore)).Inc()
		return model.Audio{}, err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(OpRestore)).Inc()
	e.publish(ctx, OpRestore, plan.Next)

	return plan.Next, nil
}

// Replace 替换内容：先把新负载上传到新键，成功后才提交元数据；
// 提交因版本冲突失败时，删除刚上传的 blob 作为补偿（尽力而为，
// 失败只记为孤儿），保证元数据不会引用未完成的上传.
func (e *Engine) Replace(ctx context.Context, id string, actor Actor, payload Payload) (model.Audio, error) {
	rec, err := e.repo.Get(ctx, id)
	if err != nil {
		return model.Audio{}, err
	}

	if err := authorize(actor, rec); err != nil {
		return model.Audio{}, err
	}

	plan, err := Transition(rec, Input{
		Op:             OpReplace,
		Now:            e.now(),
		NewBlobKey:     e.newKey(rec),
		NewContentType: payload.ContentType,
		NewSize:        payload.Size,
		Meta:           payload.Meta,
	})
	if err != nil {
		return model.Audio{}, err
	}

	// 上传先于提交：这里失败时元数据未被触碰.
	for _, eff := range plan.Effects {
		if eff.Kind != EffectPutBlob {
			continue
		}

		if err := e.putBlob(ctx, eff.Key, payload); err != nil {
			return model.Audio{}, err
		}
	}

	if err := e.repo.CompareAndSwap(ctx, rec.ID, rec.Version, plan.Next); err != nil {
		metrics.LifecycleConflicts.WithLabelValues(string(OpReplace)).Inc()
		// 补偿：回收刚上传的 blob，避免无人引用.
		for _, eff := range plan.Effects {
			if eff.Kind == EffectPutBlob {
				e.dropOrOrphan(ctx, eff.Key, "replace compensation")
			}
		}

		return model.Audio{}, err
	}

	// 提交成功后的清理（如二次替换挤掉的中间 blob），失败记孤儿.
	for _, eff := range plan.Cleanup {
		if eff.Kind == EffectDeleteBlob {
			e.dropOrOrphan(ctx, eff.Key, "post-replace cleanup")
		}
	}

	metrics.LifecycleTransitions.WithLabelValues(string(OpReplace)).Inc()
	e.publish(ctx, OpReplace, plan.Next)

	return plan.Next, nil
}

// PurgeEligible 清除所有宽限期已过的 pending_delete 记录，仅由 Reconciler
// 调用. 单条记录独立超时、独立失败：blob 删除失败的记录保持 pending_delete，
// 留给下一轮扫描重试（自愈）.
func (e *Engine) PurgeEligible(ctx context.Context, now time.Time) (purged int, err error) {
	cutoff := now.Add(-e.cfg.GracePeriod)

	records, err := e.repo.FindPurgeable(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find purgeable records: %w", err)
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			return purged, ctx.Err()
		}

		if e.purgeOne(ctx, rec, now) {
			purged++
		}
	}

	return purged, nil
}

// purgeOne 清除单条记录：删 blob -> 提交 deleted 终态 -> 物理删除记录.
func (e *Engine) purgeOne(ctx context.Context, rec model.Audio, now time.Time) bool {
	l := e.log.With().Str("id", rec.ID).Str("key", rec.CurrentBlobKey).Logger()

	pctx, cancel := context.WithTimeout(ctx, e.cfg.PurgeTimeout)
	defer cancel()

	plan, err := Transition(rec, Input{Op: OpPurge, Now: now, GracePeriod: e.cfg.GracePeriod})
	if err != nil {
		// FindPurgeable 已按截止时间过滤，到这里说明记录在查询后被并发修改.
		l.Debug().Err(err).Msg("record no longer eligible for purge")
		return false
	}

	for _, eff := range plan.Effects {
		if eff.Kind != EffectDeleteBlob {
			continue
		}

		if err := e.deleteBlob(pctx, eff.Key); err != nil {
			l.Warn().Err(err).Msg("blob delete failed, record stays pending_delete for next sweep")
			return false
		}
	}

	if err := e.repo.CompareAndSwap(pctx, rec.ID, rec.Version, plan.Next); err != nil {
		// blob 已删而提交落败（并发 restore 赢了竞态）：元数据此时引用了
		// 不存在的 blob，记录错误以便人工跟进. 宽限期让这个窗口极小.
		l.Error().Err(err).Msg("purge commit lost race after blob delete")
		metrics.LifecycleConflicts.WithLabelValues(string(OpPurge)).Inc()

		return false
	}

	if err := e.repo.Remove(pctx, rec.ID); err != nil {
		// 记录已是 deleted 终态，物理删除失败不影响正确性，下次人工清理.
		l.Warn().Err(err).Msg("failed to remove purged record")
	}

	metrics.LifecyclePurges.Inc()
	e.publish(ctx, OpPurge, plan.Next)
	l.Info().Msg("audio purged")

	return true
}

// putBlob 带退避的有限重试上传. 可 Seek 的 reader 每次尝试前回卷到
// 起点；不可 Seek 的 reader 首次失败即为永久失败——已被消费的流重试
// 只会写出半截内容，绝不允许元数据引用这样的对象.
func (e *Engine) putBlob(ctx context.Context, key string, payload Payload) error {
	seeker, rewindable := payload.Reader.(io.Seeker)

	first := true
	op := func() (struct{}, error) {
		if !first {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("rewind payload: %w", err))
			}
		}

		first = false

		if err := e.blobs.Put(ctx, key, payload.Reader, payload.Size, payload.ContentType); err != nil {
			if !rewindable {
				return struct{}{}, backoff.Permanent(err)
			}

			return struct{}{}, err
		}

		return struct{}{}, nil
	}

	if _, err := backoff.Retry(ctx, op, e.retryOpts()...); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrUpstreamUnavailable, key, err)
	}

	return nil
}

// deleteBlob 带退避的有限重试删除.
func (e *Engine) deleteBlob(ctx context.Context, key string) error {
	op := func() (struct{}, error) {
		if err := e.blobs.Delete(ctx, key); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, nil
	}

	if _, err := backoff.Retry(ctx, op, e.retryOpts()...); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUpstreamUnavailable, key, err)
	}

	return nil
}

func (e *Engine) retryOpts() []backoff.RetryOption {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.BlobRetryInterval

	return []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(e.cfg.BlobRetryMax),
	}
}

// dropOrOrphan 尽力删除 blob，失败记为孤儿：非致命，只进日志与指标，
// 由带外流程清理.
func (e *Engine) dropOrOrphan(ctx context.Context, key, reason string) {
	if err := e.deleteBlob(ctx, key); err != nil {
		metrics.LifecycleOrphans.Inc()
		e.log.Warn().Err(err).Str("key", key).Str("reason", reason).Msg("orphaned blob")
	}
}

func (e *Engine) publish(ctx context.Context, op Operation, rec model.Audio) {
	if e.events == nil {
		return
	}

	e.events.PublishLifecycle(ctx, op, rec)
}

// IsDeterministic 判断错误是否属于确定性分类（不应重试）.
func IsDeterministic(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrVersionConflict)
}
