package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func liveRecord() model.Audio {
	return model.Audio{
		ID:             "a1",
		OwnerID:        "u1",
		CurrentBlobKey: "u1/audio/a1",
		State:          model.StateLive,
		Version:        1,
	}
}

func pendingDeleteRecord() model.Audio {
	rec := liveRecord()
	t := testNow.Add(-time.Hour)
	rec.State = model.StatePendingDelete
	rec.DeletionRequestedAt = &t
	rec.Version = 2

	return rec
}

func TestTransitionDelete(t *testing.T) {
	t.Run("live enters pending delete", func(t *testing.T) {
		plan, err := Transition(liveRecord(), Input{Op: OpDelete, Now: testNow})
		require.NoError(t, err)
		require.False(t, plan.Noop)
		require.Equal(t, model.StatePendingDelete, plan.Next.State)
		require.NotNil(t, plan.Next.DeletionRequestedAt)
		require.Equal(t, testNow, *plan.Next.DeletionRequestedAt)
		require.Equal(t, int64(2), plan.Next.Version)
		// blob 删除被推迟，不产生任何副作用
		require.Empty(t, plan.Effects)
		require.Empty(t, plan.Cleanup)
	})

	t.Run("repeated delete is a noop", func(t *testing.T) {
		rec := pendingDeleteRecord()

		plan, err := Transition(rec, Input{Op: OpDelete, Now: testNow})
		require.NoError(t, err)
		require.True(t, plan.Noop)
		require.Equal(t, rec.Version, plan.Next.Version)
	})

	t.Run("pending replace keeps restore point", func(t *testing.T) {
		rec := liveRecord()
		rec.State = model.StatePendingReplace
		rec.PreviousBlobKey = "u1/audio/old"

		plan, err := Transition(rec, Input{Op: OpDelete, Now: testNow})
		require.NoError(t, err)
		require.Equal(t, model.StatePendingDelete, plan.Next.State)
		require.Equal(t, "u1/audio/old", plan.Next.PreviousBlobKey)
	})

	t.Run("deleted is terminal", func(t *testing.T) {
		rec := liveRecord()
		rec.State = model.StateDeleted

		_, err := Transition(rec, Input{Op: OpDelete, Now: testNow})
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransitionRestore(t *testing.T) {
	t.Run("pending delete returns to live", func(t *testing.T) {
		plan, err := Transition(pendingDeleteRecord(), Input{Op: OpRestore, Now: testNow})
		require.NoError(t, err)
		require.Equal(t, model.StateLive, plan.Next.State)
		require.Nil(t, plan.Next.DeletionRequestedAt)
		require.Empty(t, plan.Effects)
	})

	t.Run("delete then restore resumes pending replace", func(t *testing.T) {
		rec := pendingDeleteRecord()
		rec.PreviousBlobKey = "u1/audio/old"

		plan, err := Transition(rec, Input{Op: OpRestore, Now: testNow})
		require.NoError(t, err)
		require.Equal(t, model.StatePendingReplace, plan.Next.State)
		require.Equal(t, "u1/audio/old", plan.Next.PreviousBlobKey)
		require.Nil(t, plan.Next.DeletionRequestedAt)
	})

	t.Run("pending replace swaps keys both ways", func(t *testing.T) {
		rec := liveRecord()
		rec.State = model.StatePendingReplace
		rec.CurrentBlobKey = "u1/audio/new"
		rec.PreviousBlobKey = "u1/audio/old"

		plan, err := Transition(rec, Input{Op: OpRestore, Now: testNow})
		require.NoError(t, err)
		require.Equal(t, "u1/audio/old", plan.Next.CurrentBlobKey)
		require.Equal(t, "u1/audio/new", plan.Next.PreviousBlobKey)
		// 交换不销毁任何 blob
		require.Empty(t, plan.Effects)
		require.Empty(t, plan.Cleanup)

		// 再来一次换回去
		again, err := Transition(plan.Next, Input{Op: OpRestore, Now: testNow})
		require.NoError(t, err)
		require.Equal(t, "u1/audio/new", again.Next.CurrentBlobKey)
		require.Equal(t, "u1/audio/old", again.Next.PreviousBlobKey)
	})

	t.Run("restore from live is invalid", func(t *testing.T) {
		_, err := Transition(liveRecord(), Input{Op: OpRestore, Now: testNow})
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransitionReplace(t *testing.T) {
	t.Run("live keeps old blob as restore point", func(t *testing.T) {
		plan, err := Transition(liveRecord(), Input{Op: OpReplace, Now: testNow, NewBlobKey: "u1/audio/new"})
		require.NoError(t, err)
		require.Equal(t, model.StatePendingReplace, plan.Next.State)
		require.Equal(t, "u1/audio/new", plan.Next.CurrentBlobKey)
		require.Equal(t, "u1/audio/a1", plan.Next.PreviousBlobKey)
		require.Equal(t, []SideEffect{{Kind: EffectPutBlob, Key: "u1/audio/new"}}, plan.Effects)
		require.Empty(t, plan.Cleanup)
	})

	t.Run("second replace cleans up displaced blob", func(t *testing.T) {
		rec := liveRecord()
		rec.State = model.StatePendingReplace
		rec.CurrentBlobKey = "u1/audio/mid"
		rec.PreviousBlobKey = "u1/audio/old"

		plan, err := Transition(rec, Input{Op: OpReplace, Now: testNow, NewBlobKey: "u1/audio/new"})
		require.NoError(t, err)
		require.Equal(t, "u1/audio/new", plan.Next.CurrentBlobKey)
		// 回滚点保持最早的 blob
		require.Equal(t, "u1/audio/old", plan.Next.PreviousBlobKey)
		require.Equal(t, []SideEffect{{Kind: EffectDeleteBlob, Key: "u1/audio/mid"}}, plan.Cleanup)
	})

	t.Run("metadata patch rides the same transition", func(t *testing.T) {
		title := "renamed"
		category := model.CategoryPodcast

		plan, err := Transition(liveRecord(), Input{
			Op:             OpReplace,
			Now:            testNow,
			NewBlobKey:     "u1/audio/new",
			NewContentType: "audio/ogg",
			NewSize:        2048,
			Meta:           &MetaPatch{Title: &title, Category: &category},
		})
		require.NoError(t, err)
		require.Equal(t, "renamed", plan.Next.Title)
		require.Equal(t, model.CategoryPodcast, plan.Next.Category)
		require.Equal(t, "audio/ogg", plan.Next.ContentType)
		require.Equal(t, int64(2048), plan.Next.Size)
		// 补丁未覆盖的字段保持不变
		require.Empty(t, plan.Next.Description)
		require.Equal(t, int64(2), plan.Next.Version)
	})

	t.Run("replace while pending delete is invalid", func(t *testing.T) {
		_, err := Transition(pendingDeleteRecord(), Input{Op: OpReplace, Now: testNow, NewBlobKey: "u1/audio/new"})
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransitionPurge(t *testing.T) {
	grace := 24 * time.Hour

	t.Run("grace period not elapsed", func(t *testing.T) {
		rec := pendingDeleteRecord() // 删除请求在 1 小时前

		_, err := Transition(rec, Input{Op: OpPurge, Now: testNow, GracePeriod: grace})
		require.ErrorIs(t, err, ErrNotEligible)
	})

	t.Run("grace period elapsed deletes all blobs", func(t *testing.T) {
		rec := pendingDeleteRecord()
		rec.PreviousBlobKey = "u1/audio/old"
		requested := testNow.Add(-48 * time.Hour)
		rec.DeletionRequestedAt = &requested

		plan, err := Transition(rec, Input{Op: OpPurge, Now: testNow, GracePeriod: grace})
		require.NoError(t, err)
		require.Equal(t, model.StateDeleted, plan.Next.State)
		require.Empty(t, plan.Next.CurrentBlobKey)
		require.Empty(t, plan.Next.PreviousBlobKey)
		require.ElementsMatch(t, []SideEffect{
			{Kind: EffectDeleteBlob, Key: "u1/audio/a1"},
			{Kind: EffectDeleteBlob, Key: "u1/audio/old"},
		}, plan.Effects)
	})

	t.Run("purge from live is invalid", func(t *testing.T) {
		_, err := Transition(liveRecord(), Input{Op: OpPurge, Now: testNow, GracePeriod: grace})
		require.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestTransitionIsPure(t *testing.T) {
	rec := liveRecord()
	in := Input{Op: OpReplace, Now: testNow, NewBlobKey: "u1/audio/new"}

	first, err := Transition(rec, in)
	require.NoError(t, err)

	second, err := Transition(rec, in)
	require.NoError(t, err)

	require.Equal(t, first, second)
	// 输入记录未被修改
	require.Equal(t, model.StateLive, rec.State)
	require.Equal(t, int64(1), rec.Version)
}
