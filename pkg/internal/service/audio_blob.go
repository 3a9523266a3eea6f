package service

import (
	"context"
	"io"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/lifecycle"
	"github.com/yeisme/soundvault/pkg/internal/storage/s3"
)

// blobStore 把 S3 客户端适配为 lifecycle.BlobStore，前置熔断保护：
// 对象存储持续不可用时快速失败，让引擎的重试不再堆积在坏连接上.
type blobStore struct {
	s3 *s3.Client
	cb *gobreaker.CircuitBreaker
}

// NewBlobStore 创建 blob 存储适配器. 熔断未启用时直通.
func NewBlobStore(s3c *s3.Client, cfg configs.CircuitBreakerConfig) lifecycle.BlobStore {
	if !cfg.Enabled {
		return &blobStore{s3: s3c}
	}

	settings := gobreaker.Settings{
		Name:        "blob-store",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
	}

	return &blobStore{
		s3: s3c,
		cb: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *blobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if b.cb == nil {
		return b.s3.PutObjectStream(ctx, key, r, size, contentType)
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.s3.PutObjectStream(ctx, key, r, size, contentType)
	})

	return err
}

func (b *blobStore) Delete(ctx context.Context, key string) error {
	if b.cb == nil {
		return b.s3.RemoveObjectKey(ctx, key)
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.s3.RemoveObjectKey(ctx, key)
	})

	return err
}
