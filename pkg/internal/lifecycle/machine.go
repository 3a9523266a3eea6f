// Package lifecycle 实现音频对象的延迟删除与替换生命周期引擎：
// 纯状态机负责计算状态迁移与所需的 blob 副作用，引擎负责把迁移
// 落到元数据仓储与对象存储上，Reconciler 周期性清除宽限期已过的记录.
//
// 元数据仓储是唯一权威：blob 与记录的不一致只允许表现为"孤儿 blob"
// （可事后清理），绝不允许记录引用一个已不存在的 blob.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/yeisme/soundvault/pkg/internal/model"
)

// Operation 生命周期操作.
type Operation string

const (
	OpDelete  Operation = "delete"
	OpRestore Operation = "restore"
	OpReplace Operation = "replace"
	OpPurge   Operation = "purge" // 仅 Reconciler 使用
)

// EffectKind blob 副作用类型.
type EffectKind string

const (
	EffectPutBlob    EffectKind = "put"    // 上传新 blob，提交元数据之前执行
	EffectDeleteBlob EffectKind = "delete" // 删除 blob
)

// SideEffect 状态机要求引擎执行的一次 blob 存储动作.
type SideEffect struct {
	Kind EffectKind
	Key  string
}

// MetaPatch 随内容替换一并提交的元数据修改，nil 字段表示不修改.
type MetaPatch struct {
	Title       *string
	Description *string
	Category    *model.AudioCategory
}

// Input 一次迁移的输入参数.
type Input struct {
	Op  Operation
	Now time.Time
	// NewBlobKey 仅 OpReplace 使用：引擎预先分配的新对象键.
	NewBlobKey string
	// NewContentType/NewSize 仅 OpReplace 使用：新内容的类型与大小.
	NewContentType string
	NewSize        int64
	// Meta 仅 OpReplace 使用：与内容替换在同一次提交中生效的元数据修改，
	// 避免元数据与内容分两次 CAS 造成可观察的半提交状态.
	Meta *MetaPatch
	// GracePeriod 仅 OpPurge 使用：校验宽限期是否已过.
	GracePeriod time.Duration
}

// Plan 状态机的计算结果.
//   - Effects 必须在提交 Next 之前执行成功（上传先于提交，删除先于终态）
//   - Cleanup 在提交成功之后尽力执行，失败只记录为孤儿，不回滚
//   - Noop 表示记录已处于目标状态，引擎直接返回当前记录
type Plan struct {
	Next    model.Audio
	Effects []SideEffect
	Cleanup []SideEffect
	Noop    bool
}

// Transition 纯函数：给定记录与操作，计算下一状态与所需副作用.
// 不做任何 IO，输入相同则输出相同；副作用失败后的处置由引擎决定.
// 权限校验发生在进入状态机之前.
func Transition(rec model.Audio, in Input) (Plan, error) {
	switch in.Op {
	case OpDelete:
		return planDelete(rec, in)
	case OpRestore:
		return planRestore(rec)
	case OpReplace:
		return planReplace(rec, in)
	case OpPurge:
		return planPurge(rec, in)
	default:
		return Plan{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidState, in.Op)
	}
}

func planDelete(rec model.Audio, in Input) (Plan, error) {
	switch rec.State {
	case model.StatePendingDelete:
		// 重复请求幂等返回.
		return Plan{Next: rec, Noop: true}, nil
	case model.StateLive, model.StatePendingReplace:
		// pending_replace 直接转 pending_delete，保留 PreviousBlobKey，
		// 这样先 restore（撤销删除）再 restore（回滚替换）仍然可行.
		next := rec
		t := in.Now.UTC()
		next.State = model.StatePendingDelete
		next.DeletionRequestedAt = &t
		next.Version = rec.Version + 1

		// 删除被刻意延迟到宽限期之后，由 Reconciler 执行，blob 此刻保持可读.
		return Plan{Next: next}, nil
	default:
		return Plan{}, fmt.Errorf("%w: delete from %s", ErrInvalidState, rec.State)
	}
}

func planRestore(rec model.Audio) (Plan, error) {
	switch rec.State {
	case model.StatePendingDelete:
		next := rec
		next.State = model.StateLive
		if rec.PreviousBlobKey != "" {
			// 由 pending_replace 进入 pending_delete 的记录，撤销删除后
			// 回到 pending_replace，后续仍可回滚替换.
			next.State = model.StatePendingReplace
		}

		next.DeletionRequestedAt = nil
		next.Version = rec.Version + 1

		return Plan{Next: next}, nil
	case model.StatePendingReplace:
		// 幂等交换：再来一次 restore 会换回去，不销毁任何 blob.
		next := rec
		next.CurrentBlobKey, next.PreviousBlobKey = rec.PreviousBlobKey, rec.CurrentBlobKey
		next.Version = rec.Version + 1

		return Plan{Next: next}, nil
	default:
		return Plan{}, fmt.Errorf("%w: restore from %s", ErrInvalidState, rec.State)
	}
}

func planReplace(rec model.Audio, in Input) (Plan, error) {
	if in.NewBlobKey == "" {
		return Plan{}, fmt.Errorf("replace requires a pre-allocated blob key")
	}

	switch rec.State {
	case model.StateLive:
		next := rec
		next.State = model.StatePendingReplace
		next.PreviousBlobKey = rec.CurrentBlobKey
		next.CurrentBlobKey = in.NewBlobKey
		next.Version = rec.Version + 1
		applyReplacePayload(&next, in)

		return Plan{
			Next:    next,
			Effects: []SideEffect{{Kind: EffectPutBlob, Key: in.NewBlobKey}},
		}, nil
	case model.StatePendingReplace:
		// 再次替换：回滚点保持为最早的 PreviousBlobKey，被挤掉的当前
		// blob 在提交成功后清理，避免无人引用的泄漏.
		next := rec
		next.CurrentBlobKey = in.NewBlobKey
		next.Version = rec.Version + 1
		applyReplacePayload(&next, in)

		return Plan{
			Next:    next,
			Effects: []SideEffect{{Kind: EffectPutBlob, Key: in.NewBlobKey}},
			Cleanup: []SideEffect{{Kind: EffectDeleteBlob, Key: rec.CurrentBlobKey}},
		}, nil
	case model.StatePendingDelete:
		// 标记删除的记录不接受替换，必须先 restore 回 live，
		// 防止借替换之名复活待删内容.
		return Plan{}, fmt.Errorf("%w: replace while pending delete", ErrInvalidState)
	default:
		return Plan{}, fmt.Errorf("%w: replace from %s", ErrInvalidState, rec.State)
	}
}

// applyReplacePayload 把新内容的属性与可选的元数据修改并入 next，
// 与键交换同属一个提交.
func applyReplacePayload(next *model.Audio, in Input) {
	if in.NewContentType != "" {
		next.ContentType = in.NewContentType
	}

	if in.NewSize > 0 {
		next.Size = in.NewSize
	}

	if in.Meta == nil {
		return
	}

	if in.Meta.Title != nil {
		next.Title = *in.Meta.Title
	}

	if in.Meta.Description != nil {
		next.Description = *in.Meta.Description
	}

	if in.Meta.Category != nil {
		next.Category = *in.Meta.Category
	}
}

func planPurge(rec model.Audio, in Input) (Plan, error) {
	if rec.State != model.StatePendingDelete {
		return Plan{}, fmt.Errorf("%w: purge from %s", ErrInvalidState, rec.State)
	}

	if rec.DeletionRequestedAt == nil || in.Now.Sub(*rec.DeletionRequestedAt) < in.GracePeriod {
		return Plan{}, ErrNotEligible
	}

	next := rec
	next.State = model.StateDeleted
	next.CurrentBlobKey = ""
	next.PreviousBlobKey = ""
	next.Version = rec.Version + 1

	effects := []SideEffect{{Kind: EffectDeleteBlob, Key: rec.CurrentBlobKey}}
	if rec.PreviousBlobKey != "" {
		effects = append(effects, SideEffect{Kind: EffectDeleteBlob, Key: rec.PreviousBlobKey})
	}

	return Plan{Next: next, Effects: effects}, nil
}
