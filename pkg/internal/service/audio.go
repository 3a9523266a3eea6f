package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/db"
	"github.com/yeisme/soundvault/pkg/internal/storage/s3"
	"github.com/yeisme/soundvault/pkg/internal/types"
	nlog "github.com/yeisme/soundvault/pkg/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AudioService 音频资产服务：上传、检索、元数据维护，以及委托给
// 生命周期引擎的删除/恢复/替换.
type AudioService struct {
	dbClient *db.Client
	s3Client *s3.Client
	engine   *lifecycle.Engine
	events   *lifecycleEvents
	grace    time.Duration
}

// NewAudioService 从请求上下文装配服务与生命周期引擎.
func NewAudioService(c context.Context) *AudioService {
	dbc := ctxPkg.GetDBClient(c)
	s3c := ctxPkg.GetS3Client(c)
	mqc := ctxPkg.GetMQClient(c)

	cfg := configs.GetConfig()
	events := newLifecycleEvents(mqc, cfg.Events)

	var pub lifecycle.Publisher
	if events != nil {
		pub = events
	}

	engine := lifecycle.NewEngine(
		NewAudioRepository(dbc),
		NewBlobStore(s3c, cfg.Breaker),
		pub,
		lifecycle.Config{
			GracePeriod:       cfg.Lifecycle.GracePeriodDuration(),
			PurgeTimeout:      cfg.Lifecycle.PurgeTimeoutDuration(),
			BlobRetryMax:      cfg.Lifecycle.BlobRetryMax,
			BlobRetryInterval: cfg.Lifecycle.BlobRetryIntervalDuration(),
		},
		*nlog.Logger(),
	)

	return &AudioService{
		dbClient: dbc,
		s3Client: s3c,
		engine:   engine,
		events:   events,
		grace:    cfg.Lifecycle.GracePeriodDuration(),
	}
}

// Engine 暴露底层生命周期引擎，供 Reconciler 等后台任务复用同一套装配.
func (s *AudioService) Engine() *lifecycle.Engine {
	return s.engine
}

// GracePeriod 当前生效的删除宽限期.
func (s *AudioService) GracePeriod() time.Duration {
	return s.grace
}

// Upload 上传新音频：先写 blob，成功后落库（live，version=1）.
// blob 写入失败时元数据未被触碰；落库失败时回收已写入的 blob.
func (s *AudioService) Upload(ctx context.Context, ownerID string, req types.UploadAudioRequest, r io.Reader, size int64, contentType string) (types.AudioInfo, error) {
	if !model.ValidCategory(model.AudioCategory(req.Category)) {
		return types.AudioInfo{}, fmt.Errorf("%w: unknown category %q", lifecycle.ErrInvalidState, req.Category)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s/audio/%s", ownerID, id)

	if err := s.s3Client.PutObjectStream(ctx, key, r, size, contentType); err != nil {
		return types.AudioInfo{}, fmt.Errorf("%w: put %s: %w", lifecycle.ErrUpstreamUnavailable, key, err)
	}

	now := time.Now().UTC()
	rec := model.Audio{
		ID:             id,
		OwnerID:        ownerID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       model.AudioCategory(req.Category),
		CurrentBlobKey: key,
		ContentType:    contentType,
		Size:           size,
		State:          model.StateLive,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.dbClient.WithContext(ctx).Create(&rec).Error; err != nil {
		if derr := s.s3Client.RemoveObjectKey(ctx, key); derr != nil {
			nlog.Logger().Warn().Err(derr).Str("key", key).Msg("orphaned blob after failed insert")
		}

		return types.AudioInfo{}, fmt.Errorf("insert audio: %w", err)
	}

	s.events.publishUploaded(ctx, rec)

	return types.NewAudioInfo(rec, s.grace), nil
}

// Get 查询单条记录，deleted 终态对外等同不存在.
func (s *AudioService) Get(ctx context.Context, id string, actor lifecycle.Actor) (types.AudioInfo, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return types.AudioInfo{}, err
	}

	if !actor.Admin && actor.ID != rec.OwnerID {
		return types.AudioInfo{}, lifecycle.ErrUnauthorized
	}

	return types.NewAudioInfo(rec, s.grace), nil
}

// List 列出记录；待删除的记录仍然可见（供恢复），deleted 终态不出现.
// 普通用户只能看自己的，管理员默认看全部，可用 owner_id 过滤.
func (s *AudioService) List(ctx context.Context, actor lifecycle.Actor, req types.ListAudioRequest) (types.ListAudioResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}

	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	q := s.dbClient.WithContext(ctx).Model(&model.Audio{}).
		Where("state <> ?", model.StateDeleted)

	switch {
	case !actor.Admin:
		q = q.Where("owner_id = ?", actor.ID)
	case req.OwnerID != "":
		q = q.Where("owner_id = ?", req.OwnerID)
	}

	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return types.ListAudioResponse{}, fmt.Errorf("count audio: %w", err)
	}

	var records []model.Audio

	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return types.ListAudioResponse{}, fmt.Errorf("list audio: %w", err)
	}

	items := make([]types.AudioInfo, 0, len(records))
	for _, rec := range records {
		items = append(items, types.NewAudioInfo(rec, s.grace))
	}

	return types.ListAudioResponse{Items: items, Total: total, Page: page}, nil
}

// UpdateMeta 更新标题/描述/分类，乐观并发提交，不改变状态与内容.
func (s *AudioService) UpdateMeta(ctx context.Context, id string, actor lifecycle.Actor, req types.UpdateAudioRequest) (types.AudioInfo, error) {
	if req.Category != nil && !model.ValidCategory(model.AudioCategory(*req.Category)) {
		return types.AudioInfo{}, fmt.Errorf("%w: unknown category %q", lifecycle.ErrInvalidState, *req.Category)
	}

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return types.AudioInfo{}, err
	}

	if !actor.Admin && actor.ID != rec.OwnerID {
		return types.AudioInfo{}, lifecycle.ErrUnauthorized
	}

	next := rec
	if req.Title != nil {
		next.Title = *req.Title
	}

	if req.Description != nil {
		next.Description = *req.Description
	}

	if req.Category != nil {
		next.Category = model.AudioCategory(*req.Category)
	}

	next.Version = rec.Version + 1
	next.UpdatedAt = time.Now().UTC()

	repo := NewAudioRepository(s.dbClient)
	if err := repo.CompareAndSwap(ctx, rec.ID, rec.Version, next); err != nil {
		return types.AudioInfo{}, err
	}

	return types.NewAudioInfo(next, s.grace), nil
}

// RequestDelete 标记删除，宽限期结束后由 Reconciler 清除.
func (s *AudioService) RequestDelete(ctx context.Context, id string, actor lifecycle.Actor) (types.AudioInfo, error) {
	rec, err := s.engine.RequestDelete(ctx, id, actor)
	if err != nil {
		return types.AudioInfo{}, err
	}

	return types.NewAudioInfo(rec, s.grace), nil
}

// Restore 在宽限期内恢复，或把替换换回上一个内容.
func (s *AudioService) Restore(ctx context.Context, id string, actor lifecycle.Actor) (types.AudioInfo, error) {
	rec, err := s.engine.Restore(ctx, id, actor)
	if err != nil {
		return types.AudioInfo{}, err
	}

	return types.NewAudioInfo(rec, s.grace), nil
}

// Replace 替换内容，旧内容保留为恢复点；meta 非空时随同一次提交更新元数据.
func (s *AudioService) Replace(ctx context.Context, id string, actor lifecycle.Actor, r io.Reader, size int64, contentType string, meta *types.UpdateAudioRequest) (types.AudioInfo, error) {
	patch, err := metaPatchOf(meta)
	if err != nil {
		return types.AudioInfo{}, err
	}

	rec, err := s.engine.Replace(ctx, id, actor, lifecycle.Payload{
		Reader:      r,
		Size:        size,
		ContentType: contentType,
		Meta:        patch,
	})
	if err != nil {
		return types.AudioInfo{}, err
	}

	return types.NewAudioInfo(rec, s.grace), nil
}

// metaPatchOf 把请求转换成随内容替换一起提交的元数据补丁.
func metaPatchOf(meta *types.UpdateAudioRequest) (*lifecycle.MetaPatch, error) {
	if meta == nil || meta.Empty() {
		return nil, nil
	}

	patch := &lifecycle.MetaPatch{
		Title:       meta.Title,
		Description: meta.Description,
	}
	if meta.Category != nil {
		category := model.AudioCategory(*meta.Category)
		if !model.ValidCategory(category) {
			return nil, fmt.Errorf("%w: unknown category %q", lifecycle.ErrInvalidState, *meta.Category)
		}
		patch.Category = &category
	}

	return patch, nil
}

// PendingDeletion 管理端清单：回看窗口内进入待删除的记录.
func (s *AudioService) PendingDeletion(ctx context.Context, window time.Duration) (types.PendingDeletionResponse, error) {
	since := time.Now().UTC().Add(-window)

	var records []model.Audio

	err := s.dbClient.WithContext(ctx).
		Where("state = ? AND deletion_requested_at >= ?", model.StatePendingDelete, since).
		Order("deletion_requested_at ASC").
		Find(&records).Error
	if err != nil {
		return types.PendingDeletionResponse{}, fmt.Errorf("list pending deletion: %w", err)
	}

	items := make([]types.AudioInfo, 0, len(records))
	for _, rec := range records {
		items = append(items, types.NewAudioInfo(rec, s.grace))
	}

	return types.PendingDeletionResponse{Items: items, Total: len(items)}, nil
}

// lookup 查询并过滤终态.
func (s *AudioService) lookup(ctx context.Context, id string) (model.Audio, error) {
	repo := NewAudioRepository(s.dbClient)

	rec, err := repo.Get(ctx, id)
	if err != nil {
		return model.Audio{}, err
	}

	if rec.State == model.StateDeleted {
		return model.Audio{}, lifecycle.ErrNotFound
	}

	return rec, nil
}
