package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/queue"
)

// TestNewWatermillMessage 验证信封编码与元数据设置.
func TestNewWatermillMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := queue.AudioDeletedPayload{
		Audio: queue.AudioRef{
			AudioID: "a1",
			OwnerID: "u1",
			BlobKey: "u1/audio/a1",
		},
		DeletionRequestedAt: now,
		PurgeAfter:          now.Add(24 * time.Hour),
	}

	msg, err := queue.NewWatermillMessage(
		queue.TopicAudioDeleted, payload,
		queue.WithProducer("soundvault"),
		queue.WithTraceID("trace-1"),
	)
	require.NoError(t, err)
	require.NotEmpty(t, msg.UUID)
	require.Equal(t, queue.TopicAudioDeleted, msg.Metadata.Get("topic"))
	require.Equal(t, "soundvault", msg.Metadata.Get("producer"))
	require.Equal(t, "trace-1", msg.Metadata.Get("trace_id"))
	require.Equal(t, queue.PayloadVersionV1, msg.Metadata.Get("version"))

	env, err := queue.ParseWatermillMessage[queue.AudioDeletedPayload](msg)
	require.NoError(t, err)
	require.Equal(t, queue.TopicAudioDeleted, env.Header.Topic)
	require.Equal(t, "a1", env.Payload.Audio.AudioID)
	require.True(t, env.Payload.PurgeAfter.Equal(now.Add(24*time.Hour)))
}
