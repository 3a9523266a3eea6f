package lifecycle

import "errors"

// 生命周期引擎的错误分类. NotFound/Unauthorized/InvalidState/VersionConflict
// 属于确定性错误，直接透传给调用方，不做重试；UpstreamUnavailable 表示 blob
// 或仓储调用在有限重试后仍失败.
var (
	// ErrNotFound 记录不存在.
	ErrNotFound = errors.New("lifecycle: record not found")
	// ErrUnauthorized 操作者既不是所有者也不是管理员.
	ErrUnauthorized = errors.New("lifecycle: operation not authorized")
	// ErrInvalidState 当前状态下不允许该操作.
	ErrInvalidState = errors.New("lifecycle: operation invalid for current state")
	// ErrVersionConflict 乐观并发提交失败，调用方需重读后重试.
	ErrVersionConflict = errors.New("lifecycle: version conflict")
	// ErrUpstreamUnavailable blob 存储或元数据仓储在重试预算内未恢复.
	ErrUpstreamUnavailable = errors.New("lifecycle: upstream unavailable")
	// ErrNotEligible 宽限期未到，清除被拒绝（仅 Reconciler 路径可见）.
	ErrNotEligible = errors.New("lifecycle: grace period not elapsed")
	// ErrUnsupportedMedia 替换负载的内容类型不在白名单内.
	ErrUnsupportedMedia = errors.New("lifecycle: unsupported payload type")
)
