package cull

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/pairing"
	"github.com/John-Robertt/rawcull/internal/preview"
	"github.com/John-Robertt/rawcull/internal/relocate"
)

// Folders 是处置时的目标目录；构建后不再变化。
type Folders struct {
	KeepRaw    string
	KeepJPEG   string
	DeleteRaw  string
	DeleteJPEG string
}

// Options 是 Build 的输入。Fs/Meta/Thumbs 必填；Prompter 为 nil 时等价于 SkipAll。
type Options struct {
	Fs         afero.Fs
	Files      []domain.ImageFile
	Classifier pairing.Classifier
	Folders    Folders

	Meta     MetadataReader
	Thumbs   ThumbnailDecoder
	Prompter Prompter
	Observer Observer
}

// Build 配对并逐个构造 Pair，按扫描顺序链接成序列。
//
// - 扩展名无法识别 / 同类同名：返回 pairing 的错误，不产生部分序列
// - 缩略图无法识别：交给 Prompter；跳过则丢弃该配对，中止则返回 ErrBuildAborted
// - 拍摄信息读取失败：记日志，使用空信息
// 空输入得到空序列（不是错误），由调用方决定如何处理。
func Build(ctx context.Context, opts Options) (*Sequence, error) {
	if opts.Fs == nil || opts.Meta == nil || opts.Thumbs == nil {
		return nil, errors.New("cull.Build：Fs/Meta/Thumbs 不能为空")
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = SkipAll{}
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	plans, err := pairing.Pair(opts.Files, opts.Classifier)
	if err != nil {
		return nil, err
	}

	s := &Sequence{
		nodes:    make([]node, 0, len(plans)),
		head:     none,
		cursor:   none,
		folders:  opts.Folders,
		mover:    relocate.Mover{Fs: opts.Fs},
		prompter: prompter,
		observer: obs,
	}

	obs.OnBuildStart(len(plans))
	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			s.releaseAll()
			return nil, err
		}

		pv, err := decodePreview(opts.Thumbs, plan)
		if err != nil {
			var ue *preview.UnsupportedThumbnailError
			if !errors.As(err, &ue) {
				s.releaseAll()
				return nil, fmt.Errorf("生成预览失败：%w", err)
			}
			switch prompter.OnUnsupportedThumbnail(ctx, ue.Path, err) {
			case ThumbnailAbort:
				s.releaseAll()
				return nil, fmt.Errorf("%w：%v", ErrBuildAborted, err)
			default:
				log.Warn().Err(err).Str("path", ue.Path).Msg("已跳过无法预览的配对")
				obs.OnPairSkipped(i+1, len(plans), plan, err)
				continue
			}
		}

		p := newPair(plan, readMeta(opts.Meta, plan), pv)
		s.append(p)
		log.Debug().Str("title", p.Title()).Str("mode", p.Mode()).Msg("配对已加入序列")
		obs.OnPairBuilt(i+1, len(plans), p)
	}

	s.originalCount = s.currentCount
	return s, nil
}

// decodePreview 优先直接加载 JPEG，没有 JPEG 时才从 raw 取内嵌缩略图。
func decodePreview(d ThumbnailDecoder, plan domain.PairPlan) (*preview.Preview, error) {
	if plan.HasJPEG() {
		return d.DecodeJPEG(plan.JPEGPath)
	}
	return d.DecodeRaw(plan.RawPath)
}

// readMeta 以 raw 为准（两者都有时），没有 raw 时读 JPEG。
func readMeta(r MetadataReader, plan domain.PairPlan) domain.CaptureMeta {
	path := plan.RawPath
	if path == "" {
		path = plan.JPEGPath
	}
	m, err := r.Read(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("读取拍摄信息失败，使用空信息")
		return domain.CaptureMeta{}
	}
	return m
}
