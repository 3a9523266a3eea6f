package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/types"
)

// TestUploadRejectsUnknownCategory 分类不在枚举内的上传直接拒绝，不触碰任何存储.
func TestUploadRejectsUnknownCategory(t *testing.T) {
	s := &AudioService{}

	_, err := s.Upload(context.Background(), "u1", types.UploadAudioRequest{
		Title:    "demo",
		Category: "vlog",
	}, nil, 0, "audio/mpeg")
	require.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

// TestUpdateMetaRejectsUnknownCategory 元数据更新同样校验分类枚举.
func TestUpdateMetaRejectsUnknownCategory(t *testing.T) {
	s := &AudioService{}
	bad := "vlog"

	_, err := s.UpdateMeta(context.Background(), "a1", lifecycle.Actor{ID: "u1"}, types.UpdateAudioRequest{
		Category: &bad,
	})
	require.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestMetaPatchOf(t *testing.T) {
	t.Run("nil and empty requests yield no patch", func(t *testing.T) {
		patch, err := metaPatchOf(nil)
		require.NoError(t, err)
		require.Nil(t, patch)

		patch, err = metaPatchOf(&types.UpdateAudioRequest{})
		require.NoError(t, err)
		require.Nil(t, patch)
	})

	t.Run("fields convert into the patch", func(t *testing.T) {
		title := "renamed"
		category := "podcast"

		patch, err := metaPatchOf(&types.UpdateAudioRequest{Title: &title, Category: &category})
		require.NoError(t, err)
		require.NotNil(t, patch)
		require.Equal(t, "renamed", *patch.Title)
		require.Equal(t, model.CategoryPodcast, *patch.Category)
		require.Nil(t, patch.Description)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		bad := "vlog"

		_, err := metaPatchOf(&types.UpdateAudioRequest{Category: &bad})
		require.ErrorIs(t, err, lifecycle.ErrInvalidState)
	})
}
