package cull

import (
	"context"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/preview"
	"github.com/John-Robertt/rawcull/internal/relocate"
)

// MetadataReader 读取拍摄信息；缺失字段为空，错误不会中断构建。
type MetadataReader interface {
	Read(path string) (domain.CaptureMeta, error)
}

// ThumbnailDecoder 为配对生成预览。
// DecodeRaw 在无法识别内嵌缩略图时返回 *preview.UnsupportedThumbnailError。
type ThumbnailDecoder interface {
	DecodeRaw(path string) (*preview.Preview, error)
	DecodeJPEG(path string) (*preview.Preview, error)
}

// ThumbnailDecision 是缩略图无法识别时的用户选择。
type ThumbnailDecision int

const (
	ThumbnailSkip ThumbnailDecision = iota
	ThumbnailAbort
)

type (
	MoveFailure  = relocate.Failure
	MoveDecision = relocate.Decision
)

const (
	MoveSkip  = relocate.Skip
	MoveRetry = relocate.Retry
)

// Prompter 把可恢复错误交给用户决定。
//
// 回调在 Sequence 持锁期间执行：实现不得回调 Sequence 的方法。
type Prompter interface {
	OnUnsupportedThumbnail(ctx context.Context, path string, err error) ThumbnailDecision
	OnMoveFailure(ctx context.Context, f MoveFailure) MoveDecision
}

// Observer 用于把构建与处置进度从核心流程中解耦出来（cull 包本身不做任何输出）。
type Observer interface {
	// OnBuildStart 在配对完成、开始逐个解码前调用。
	OnBuildStart(total int)
	// OnPairBuilt 在某个配对成功加入序列后调用（idx 从 1 开始）。
	OnPairBuilt(idx, total int, p *Pair)
	// OnPairSkipped 在用户选择跳过某个配对后调用。
	OnPairSkipped(idx, total int, plan domain.PairPlan, err error)
	// OnDisposed 在一次处置完成（节点已移除）后调用。
	OnDisposed(d Disposition, remaining int)
}

// SkipAll 是总是选择跳过的 Prompter（非交互场景使用）。
type SkipAll struct{}

func (SkipAll) OnUnsupportedThumbnail(context.Context, string, error) ThumbnailDecision {
	return ThumbnailSkip
}

func (SkipAll) OnMoveFailure(context.Context, MoveFailure) MoveDecision { return MoveSkip }

type nopObserver struct{}

func (nopObserver) OnBuildStart(int)                               {}
func (nopObserver) OnPairBuilt(int, int, *Pair)                    {}
func (nopObserver) OnPairSkipped(int, int, domain.PairPlan, error) {}
func (nopObserver) OnDisposed(Disposition, int)                    {}
