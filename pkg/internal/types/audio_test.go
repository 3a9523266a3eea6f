package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/model"
	"github.com/yeisme/soundvault/pkg/internal/types"
)

// TestNewAudioInfo 视图对象必须暴露可恢复性与清除时间点.
func TestNewAudioInfo(t *testing.T) {
	grace := 24 * time.Hour
	requested := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("live record has no purge deadline", func(t *testing.T) {
		info := types.NewAudioInfo(model.Audio{
			ID:    "a1",
			State: model.StateLive,
		}, grace)

		require.Nil(t, info.PurgeAfter)
		require.False(t, info.Restorable)
	})

	t.Run("pending delete exposes purge deadline", func(t *testing.T) {
		info := types.NewAudioInfo(model.Audio{
			ID:                  "a1",
			State:               model.StatePendingDelete,
			DeletionRequestedAt: &requested,
		}, grace)

		require.NotNil(t, info.PurgeAfter)
		require.True(t, info.PurgeAfter.Equal(requested.Add(grace)))
		require.True(t, info.Restorable)
	})

	t.Run("pending replace is restorable", func(t *testing.T) {
		info := types.NewAudioInfo(model.Audio{
			ID:    "a1",
			State: model.StatePendingReplace,
		}, grace)

		require.True(t, info.Restorable)
		require.Nil(t, info.PurgeAfter)
	})
}
