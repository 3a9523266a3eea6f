package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// blockingRepo 让 FindPurgeable 阻塞，用于验证扫描互斥.
type blockingRepo struct {
	*fakeRepo
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRepo) FindPurgeable(ctx context.Context, before time.Time) ([]model.Audio, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release

	return r.fakeRepo.FindPurgeable(ctx, before)
}

func TestReconcilerRun(t *testing.T) {
	rec := pendingDeleteRecord()
	requested := testNow.Add(-48 * time.Hour)
	rec.DeletionRequestedAt = &requested

	repo := newFakeRepo(rec)
	blobs := newFakeBlobs("u1/audio/a1")
	r := NewReconciler(newTestEngine(repo, blobs), zerolog.Nop())
	r.now = func() time.Time { return testNow }

	require.True(t, r.Run(context.Background()))
	require.False(t, blobs.has("u1/audio/a1"))
	require.False(t, r.Running())

	// 没有待清除记录时空转也算完成一轮
	require.True(t, r.Run(context.Background()))
}

func TestReconcilerSkipsOverlappingSweep(t *testing.T) {
	repo := &blockingRepo{
		fakeRepo: newFakeRepo(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	r := NewReconciler(newTestEngine(repo.fakeRepo, newFakeBlobs()), zerolog.Nop())
	r.engine.repo = repo
	r.now = func() time.Time { return testNow }

	done := make(chan bool, 1)

	go func() {
		done <- r.Run(context.Background())
	}()

	// 等首轮进入扫描后再触发第二轮，必须被互斥跳过
	<-repo.entered
	require.True(t, r.Running())
	require.False(t, r.Run(context.Background()))

	close(repo.release)
	require.True(t, <-done)
	require.False(t, r.Running())
}
