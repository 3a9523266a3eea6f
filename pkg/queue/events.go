package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishAudioUploaded 发布 sv.audio.uploaded 事件。
// 用于 blob 写入对象存储并落库元数据后，通知下游流程（如转码、索引等）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishAudioUploaded(pub message.Publisher, payload AudioUploadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioUploaded, msg)
}

// PublishAudioDeleted 发布 sv.audio.deleted 事件（宽限期开始）。
func PublishAudioDeleted(pub message.Publisher, payload AudioDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioDeleted, msg)
}

// PublishAudioRestored 发布 sv.audio.restored 事件。
func PublishAudioRestored(pub message.Publisher, payload AudioRestoredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioRestored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioRestored, msg)
}

// PublishAudioReplaced 发布 sv.audio.replaced 事件。
func PublishAudioReplaced(pub message.Publisher, payload AudioReplacedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioReplaced, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioReplaced, msg)
}

// PublishAudioPurged 发布 sv.audio.purged 事件。
func PublishAudioPurged(pub message.Publisher, payload AudioPurgedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAudioPurged, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAudioPurged, msg)
}

// PublishUserRegistered 发布 sv.user.registered 事件。
func PublishUserRegistered(pub message.Publisher, payload UserRegisteredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicUserRegistered, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicUserRegistered, msg)
}

// PublishUserDeleted 发布 sv.user.deleted 事件（保留期开始）。
func PublishUserDeleted(pub message.Publisher, payload UserDeletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicUserDeleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicUserDeleted, msg)
}

// PublishUserPurged 发布 sv.user.purged 事件。
func PublishUserPurged(pub message.Publisher, payload UserPurgedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicUserPurged, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicUserPurged, msg)
}

// ParseAudioDeleted 将 Watermill 消息解析为强类型 Envelope（AudioDeletedPayload）。
func ParseAudioDeleted(msg *message.Message) (Message[AudioDeletedPayload], error) {
	return ParseWatermillMessage[AudioDeletedPayload](msg)
}

// ParseAudioPurged 将 Watermill 消息解析为强类型 Envelope（AudioPurgedPayload）。
func ParseAudioPurged(msg *message.Message) (Message[AudioPurgedPayload], error) {
	return ParseWatermillMessage[AudioPurgedPayload](msg)
}
