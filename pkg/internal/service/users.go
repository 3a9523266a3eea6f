package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/configs"
	ctxPkg "github.com/yeisme/soundvault/pkg/context"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/storage/db"
	"github.com/yeisme/soundvault/pkg/internal/types"
	nlog "github.com/yeisme/soundvault/pkg/log"
)

// UserService 用户资料维护与软删除.
type UserService struct {
	dbClient *db.Client
	events   *userEvents
}

// NewUserService 从请求上下文装配用户服务.
func NewUserService(c context.Context) *UserService {
	return &UserService{
		dbClient: ctxPkg.GetDBClient(c),
		events:   newUserEvents(ctxPkg.GetMQClient(c), configs.GetConfig().Events),
	}
}

// Get 查询用户.
func (s *UserService) Get(ctx context.Context, id string) (types.UserInfo, error) {
	var user model.User

	err := s.dbClient.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.UserInfo{}, lifecycle.ErrNotFound
	}

	if err != nil {
		return types.UserInfo{}, fmt.Errorf("query user %s: %w", id, err)
	}

	return types.NewUserInfo(user), nil
}

// List 列出全部用户，仅管理员（软删除的不出现）.
func (s *UserService) List(ctx context.Context) ([]types.UserInfo, error) {
	var users []model.User

	err := s.dbClient.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	items := make([]types.UserInfo, 0, len(users))
	for _, u := range users {
		items = append(items, types.NewUserInfo(u))
	}

	return items, nil
}

// Update 更新资料，仅本人或管理员.
func (s *UserService) Update(ctx context.Context, id string, actor lifecycle.Actor, req types.UpdateUserRequest) (types.UserInfo, error) {
	if !actor.Admin && actor.ID != id {
		return types.UserInfo{}, lifecycle.ErrUnauthorized
	}

	var user model.User

	err := s.dbClient.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.UserInfo{}, lifecycle.ErrNotFound
	}

	if err != nil {
		return types.UserInfo{}, fmt.Errorf("query user %s: %w", id, err)
	}

	if req.Username != nil {
		user.Username = *req.Username
	}

	if req.Email != nil {
		user.Email = *req.Email
	}

	if err := s.dbClient.WithContext(ctx).Save(&user).Error; err != nil {
		return types.UserInfo{}, fmt.Errorf("update user %s: %w", id, err)
	}

	return types.NewUserInfo(user), nil
}

// Delete 软删除账户，仅本人或管理员. 记录进入保留期，
// 后台任务在保留期后物理清除.
func (s *UserService) Delete(ctx context.Context, id string, actor lifecycle.Actor) error {
	if !actor.Admin && actor.ID != id {
		return lifecycle.ErrUnauthorized
	}

	res := s.dbClient.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return lifecycle.ErrNotFound
	}

	s.events.publishDeleted(ctx, id, time.Now().UTC())

	return nil
}

// PurgeDeleted 物理清除保留期已过的软删除用户，返回清除数量.
// 由后台任务周期调用.
func (s *UserService) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	var ids []string

	err := s.dbClient.WithContext(ctx).Unscoped().Model(&model.User{}).
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", before).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("find purgeable users: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	res := s.dbClient.WithContext(ctx).Unscoped().Delete(&model.User{}, "id IN ?", ids)
	if res.Error != nil {
		return 0, fmt.Errorf("purge deleted users: %w", res.Error)
	}

	for _, id := range ids {
		s.events.publishPurged(ctx, id)
	}

	nlog.Logger().Info().Int64("count", res.RowsAffected).Msg("purged soft-deleted users")

	return res.RowsAffected, nil
}
