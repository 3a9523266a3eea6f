package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// fakeRepo 内存仓储，CompareAndSwap 按版本号校验.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]model.Audio

	// failCAS 为 true 时强制返回版本冲突，模拟并发提交竞态.
	failCAS bool
}

func newFakeRepo(recs ...model.Audio) *fakeRepo {
	r := &fakeRepo{records: make(map[string]model.Audio)}
	for _, rec := range recs {
		r.records[rec.ID] = rec
	}

	return r
}

func (r *fakeRepo) Get(_ context.Context, id string) (model.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return model.Audio{}, ErrNotFound
	}

	return rec, nil
}

func (r *fakeRepo) FindPurgeable(_ context.Context, before time.Time) ([]model.Audio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Audio

	for _, rec := range r.records {
		if rec.State == model.StatePendingDelete &&
			rec.DeletionRequestedAt != nil &&
			!rec.DeletionRequestedAt.After(before) {
			out = append(out, rec)
		}
	}

	return out, nil
}

func (r *fakeRepo) CompareAndSwap(_ context.Context, id string, expectedVersion int64, rec model.Audio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCAS {
		return ErrVersionConflict
	}

	cur, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}

	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}

	r.records[id] = rec

	return nil
}

func (r *fakeRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, id)

	return nil
}

func (r *fakeRepo) get(id string) (model.Audio, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]

	return rec, ok
}

// fakeBlobs 内存对象存储，可按需让 Put/Delete 失败.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	putErr error
	// failPuts 前 N 次 Put 返回瞬时错误，之后恢复正常.
	failPuts  int
	deleteErr error
}

func newFakeBlobs(keys ...string) *fakeBlobs {
	b := &fakeBlobs{objects: make(map[string][]byte)}
	for _, k := range keys {
		b.objects[k] = []byte("blob")
	}

	return b
}

func (b *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	// 先消费 reader 再失败：真实存储在写入中途出错时流已被读走
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failPuts > 0 {
		b.failPuts--
		return io.ErrUnexpectedEOF
	}

	if b.putErr != nil {
		return b.putErr
	}

	b.objects[key] = data

	return nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleteErr != nil {
		return b.deleteErr
	}

	delete(b.objects, key)
	b.deleted = append(b.deleted, key)

	return nil
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.objects[key]

	return ok
}

func (b *fakeBlobs) data(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.objects[key]
}

func (b *fakeBlobs) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.deleted...)
}

func newTestEngine(repo *fakeRepo, blobs *fakeBlobs) *Engine {
	e := NewEngine(repo, blobs, nil, Config{
		GracePeriod:       24 * time.Hour,
		PurgeTimeout:      time.Second,
		BlobRetryMax:      2,
		BlobRetryInterval: time.Millisecond,
	}, zerolog.Nop())

	e.now = func() time.Time { return testNow }
	e.newKey = func(rec model.Audio) string { return rec.OwnerID + "/audio/new" }

	return e
}

func payloadOf(s string) Payload {
	return Payload{Reader: bytes.NewReader([]byte(s)), Size: int64(len(s)), ContentType: "audio/mpeg"}
}

var owner = Actor{ID: "u1"}

func TestEngineRequestDelete(t *testing.T) {
	repo := newFakeRepo(liveRecord())
	blobs := newFakeBlobs("u1/audio/a1")
	e := newTestEngine(repo, blobs)

	rec, err := e.RequestDelete(context.Background(), "a1", owner)
	require.NoError(t, err)
	require.Equal(t, model.StatePendingDelete, rec.State)
	require.Equal(t, int64(2), rec.Version)
	// 宽限期内 blob 保持存在
	require.True(t, blobs.has("u1/audio/a1"))

	// 第二次删除幂等，版本不变
	again, err := e.RequestDelete(context.Background(), "a1", owner)
	require.NoError(t, err)
	require.Equal(t, int64(2), again.Version)

	stored, _ := repo.get("a1")
	require.Equal(t, int64(2), stored.Version)
}

func TestEngineAuthorize(t *testing.T) {
	repo := newFakeRepo(liveRecord())
	e := newTestEngine(repo, newFakeBlobs("u1/audio/a1"))

	_, err := e.RequestDelete(context.Background(), "a1", Actor{ID: "intruder"})
	require.ErrorIs(t, err, ErrUnauthorized)

	// 管理员不受所有者限制
	_, err = e.RequestDelete(context.Background(), "a1", Actor{ID: "ops", Admin: true})
	require.NoError(t, err)
}

func TestEngineDeleteRestoreRoundTrip(t *testing.T) {
	repo := newFakeRepo(liveRecord())
	e := newTestEngine(repo, newFakeBlobs("u1/audio/a1"))

	_, err := e.RequestDelete(context.Background(), "a1", owner)
	require.NoError(t, err)

	rec, err := e.Restore(context.Background(), "a1", owner)
	require.NoError(t, err)
	require.Equal(t, model.StateLive, rec.State)
	require.Nil(t, rec.DeletionRequestedAt)
	require.Equal(t, int64(3), rec.Version)
}

func TestEngineReplace(t *testing.T) {
	t.Run("uploads before commit", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		rec, err := e.Replace(context.Background(), "a1", owner, payloadOf("v2"))
		require.NoError(t, err)
		require.Equal(t, model.StatePendingReplace, rec.State)
		require.Equal(t, "u1/audio/new", rec.CurrentBlobKey)
		require.Equal(t, "u1/audio/a1", rec.PreviousBlobKey)
		// 新旧 blob 都还在：旧的是回滚点
		require.True(t, blobs.has("u1/audio/new"))
		require.True(t, blobs.has("u1/audio/a1"))
	})

	t.Run("upload failure leaves metadata untouched", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		blobs.putErr = io.ErrUnexpectedEOF
		e := newTestEngine(repo, blobs)

		_, err := e.Replace(context.Background(), "a1", owner, payloadOf("v2"))
		require.ErrorIs(t, err, ErrUpstreamUnavailable)

		stored, _ := repo.get("a1")
		require.Equal(t, model.StateLive, stored.State)
		require.Equal(t, int64(1), stored.Version)
	})

	t.Run("commit conflict compensates uploaded blob", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		repo.failCAS = true
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		_, err := e.Replace(context.Background(), "a1", owner, payloadOf("v2"))
		require.ErrorIs(t, err, ErrVersionConflict)
		// 刚上传的 blob 被补偿删除
		require.False(t, blobs.has("u1/audio/new"))
		require.True(t, blobs.has("u1/audio/a1"))
	})

	t.Run("replace while pending delete rejected", func(t *testing.T) {
		repo := newFakeRepo(pendingDeleteRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		_, err := e.Replace(context.Background(), "a1", owner, payloadOf("v2"))
		require.ErrorIs(t, err, ErrInvalidState)
		require.False(t, blobs.has("u1/audio/new"))
	})

	t.Run("transient put failure retries full content", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		blobs.failPuts = 1
		e := newTestEngine(repo, blobs)

		rec, err := e.Replace(context.Background(), "a1", owner, payloadOf("replacement-bytes"))
		require.NoError(t, err)
		require.Equal(t, "u1/audio/new", rec.CurrentBlobKey)
		// 重试写入的是完整内容，而不是被上一次尝试消费过的空流
		require.Equal(t, []byte("replacement-bytes"), blobs.data("u1/audio/new"))
	})

	t.Run("non seekable payload fails without retry", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		blobs.failPuts = 1
		e := newTestEngine(repo, blobs)

		body := struct{ io.Reader }{bytes.NewReader([]byte("v2"))}

		_, err := e.Replace(context.Background(), "a1", owner, Payload{Reader: body, Size: 2, ContentType: "audio/mpeg"})
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
		// 无法回卷的流不重试，也没有半截 blob 被提交
		require.False(t, blobs.has("u1/audio/new"))

		stored, _ := repo.get("a1")
		require.Equal(t, model.StateLive, stored.State)
		require.Equal(t, int64(1), stored.Version)
	})

	t.Run("metadata lands in the same commit", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		title := "renamed"
		category := model.CategoryPodcast

		rec, err := e.Replace(context.Background(), "a1", owner, Payload{
			Reader:      bytes.NewReader([]byte("v2")),
			Size:        2,
			ContentType: "audio/ogg",
			Meta:        &MetaPatch{Title: &title, Category: &category},
		})
		require.NoError(t, err)
		require.Equal(t, "renamed", rec.Title)
		require.Equal(t, model.CategoryPodcast, rec.Category)
		require.Equal(t, "audio/ogg", rec.ContentType)
		require.Equal(t, int64(2), rec.Size)
		require.Equal(t, int64(2), rec.Version)
	})

	t.Run("conflict leaves metadata untouched too", func(t *testing.T) {
		repo := newFakeRepo(liveRecord())
		repo.failCAS = true
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		title := "renamed"

		_, err := e.Replace(context.Background(), "a1", owner, Payload{
			Reader:      bytes.NewReader([]byte("v2")),
			Size:        2,
			ContentType: "audio/ogg",
			Meta:        &MetaPatch{Title: &title},
		})
		require.ErrorIs(t, err, ErrVersionConflict)

		// 元数据与内容要么一起生效要么都不生效
		stored, _ := repo.get("a1")
		require.Equal(t, liveRecord(), stored)
	})
}

// gateRepo 在 Get 上设栅栏，保证两个并发 Replace 读到同一版本.
type gateRepo struct {
	*fakeRepo
	gate sync.WaitGroup
}

func (r *gateRepo) Get(ctx context.Context, id string) (model.Audio, error) {
	rec, err := r.fakeRepo.Get(ctx, id)
	r.gate.Done()
	r.gate.Wait()

	return rec, err
}

func TestEngineConcurrentReplace(t *testing.T) {
	inner := newFakeRepo(liveRecord())
	repo := &gateRepo{fakeRepo: inner}
	repo.gate.Add(2)

	blobs := newFakeBlobs("u1/audio/a1")

	e := NewEngine(repo, blobs, nil, Config{
		GracePeriod:       24 * time.Hour,
		PurgeTimeout:      time.Second,
		BlobRetryMax:      2,
		BlobRetryInterval: time.Millisecond,
	}, zerolog.Nop())
	e.now = func() time.Time { return testNow }

	var seq atomic.Int64
	e.newKey = func(rec model.Audio) string {
		return fmt.Sprintf("%s/audio/cand-%d", rec.OwnerID, seq.Add(1))
	}

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := e.Replace(context.Background(), "a1", owner, payloadOf("v2"))
			errs <- err
		}()
	}

	var successes, conflicts int

	for range 2 {
		switch err := <-errs; {
		case err == nil:
			successes++
		case errors.Is(err, ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 恰好一个提交成功，另一个以版本冲突落败
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)

	stored, ok := inner.get("a1")
	require.True(t, ok)
	require.Equal(t, model.StatePendingReplace, stored.State)
	require.Equal(t, int64(2), stored.Version)
	// 胜者的 blob 在、恢复点在，败者的候选 blob 被补偿删除
	require.True(t, blobs.has(stored.CurrentBlobKey))
	require.Equal(t, "u1/audio/a1", stored.PreviousBlobKey)
	require.True(t, blobs.has("u1/audio/a1"))
	require.Len(t, blobs.deletedKeys(), 1)
	require.NotEqual(t, stored.CurrentBlobKey, blobs.deletedKeys()[0])
}

func TestEnginePurgeEligible(t *testing.T) {
	expired := func(id string) model.Audio {
		rec := pendingDeleteRecord()
		rec.ID = id
		rec.CurrentBlobKey = "u1/audio/" + id
		t := testNow.Add(-48 * time.Hour)
		rec.DeletionRequestedAt = &t

		return rec
	}

	t.Run("purges expired records in order", func(t *testing.T) {
		rec := expired("a1")
		rec.PreviousBlobKey = "u1/audio/old"
		repo := newFakeRepo(rec)
		blobs := newFakeBlobs("u1/audio/a1", "u1/audio/old")
		e := newTestEngine(repo, blobs)

		purged, err := e.PurgeEligible(context.Background(), testNow)
		require.NoError(t, err)
		require.Equal(t, 1, purged)
		require.False(t, blobs.has("u1/audio/a1"))
		require.False(t, blobs.has("u1/audio/old"))

		// 记录已物理删除
		_, ok := repo.get("a1")
		require.False(t, ok)
	})

	t.Run("within grace period nothing happens", func(t *testing.T) {
		repo := newFakeRepo(pendingDeleteRecord()) // 1 小时前请求删除
		blobs := newFakeBlobs("u1/audio/a1")
		e := newTestEngine(repo, blobs)

		purged, err := e.PurgeEligible(context.Background(), testNow)
		require.NoError(t, err)
		require.Zero(t, purged)
		require.True(t, blobs.has("u1/audio/a1"))
	})

	t.Run("blob failure keeps record for next sweep", func(t *testing.T) {
		repo := newFakeRepo(expired("a1"))
		blobs := newFakeBlobs("u1/audio/a1")
		blobs.deleteErr = io.ErrUnexpectedEOF
		e := newTestEngine(repo, blobs)

		purged, err := e.PurgeEligible(context.Background(), testNow)
		require.NoError(t, err)
		require.Zero(t, purged)

		// 记录保持 pending_delete，下一轮扫描重试即可自愈
		stored, ok := repo.get("a1")
		require.True(t, ok)
		require.Equal(t, model.StatePendingDelete, stored.State)

		blobs.mu.Lock()
		blobs.deleteErr = nil
		blobs.mu.Unlock()

		purged, err = e.PurgeEligible(context.Background(), testNow)
		require.NoError(t, err)
		require.Equal(t, 1, purged)
	})

	t.Run("multiple records purged in one sweep", func(t *testing.T) {
		repo := newFakeRepo(expired("a1"), expired("a2"))
		blobs := newFakeBlobs("u1/audio/a1", "u1/audio/a2")
		e := newTestEngine(repo, blobs)

		purged, err := e.PurgeEligible(context.Background(), testNow)
		require.NoError(t, err)
		require.Equal(t, 2, purged)
		require.False(t, blobs.has("u1/audio/a1"))
		require.False(t, blobs.has("u1/audio/a2"))
	})
}

func TestIsDeterministic(t *testing.T) {
	require.True(t, IsDeterministic(ErrNotFound))
	require.True(t, IsDeterministic(ErrUnauthorized))
	require.True(t, IsDeterministic(ErrInvalidState))
	require.True(t, IsDeterministic(ErrVersionConflict))
	require.False(t, IsDeterministic(ErrUpstreamUnavailable))
	require.False(t, IsDeterministic(io.ErrUnexpectedEOF))
}
