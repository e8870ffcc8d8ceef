// Package relocate 负责“移动到目标目录”：按拍摄时间推导文件名、冲突时追加序号，
// 以及移动失败后由调用方决定重试或跳过的状态机。
package relocate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/infra/fsx"
)

// MaxCandidates 是按拍摄时间推导的候选名数量上限：IMG_x、IMG_x(2) … IMG_x(49)。
const MaxCandidates = 49

const stampLayout = "060102_150405"

// DerivedName 返回第 n 个候选名（n 从 1 开始；n >= 2 时追加 "(n)"）。ext 原样保留。
func DerivedName(t time.Time, ext string, n int) string {
	base := "IMG_" + t.Format(stampLayout)
	if n <= 1 {
		return base + ext
	}
	return fmt.Sprintf("%s(%d)%s", base, n, ext)
}

// Allocate 为 srcName 在 dir 下选择目标路径。
//
// 有拍摄时间时依次尝试候选名，取第一个不存在的；没有拍摄时间或候选名用尽时
// 回退到原文件名（renamed=false），回退名是否冲突交给移动原语判断。
func Allocate(fs afero.Fs, dir, srcName string, captured *time.Time) (dst string, renamed bool, err error) {
	if captured == nil || captured.IsZero() {
		return filepath.Join(dir, srcName), false, nil
	}
	ext := filepath.Ext(srcName)
	for n := 1; n <= MaxCandidates; n++ {
		cand := filepath.Join(dir, DerivedName(*captured, ext, n))
		ok, err := fsx.Exists(fs, cand)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return cand, true, nil
		}
	}
	log.Debug().Str("dir", dir).Str("name", srcName).Msg("候选名已用尽，回退到原文件名")
	return filepath.Join(dir, srcName), false, nil
}

// Failure 描述一次失败的移动尝试。
type Failure struct {
	Src     string
	Dst     string
	Attempt int
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("移动 %q -> %q 失败（第 %d 次）：%v", f.Src, f.Dst, f.Attempt, f.Err)
}

// Decision 是移动失败后的用户选择。
type Decision int

const (
	Skip Decision = iota
	Retry
)

func (d Decision) String() string {
	if d == Retry {
		return "retry"
	}
	return "skip"
}

// DecideFunc 在每次失败后被调用；次数不设上限，由返回值驱动。
type DecideFunc func(ctx context.Context, f Failure) Decision

// Mover 执行带重试的移动。
type Mover struct {
	Fs afero.Fs
}

// Move 把 src 移动到 dir，返回终态的 MoveOutcome。
//
// 状态：Attempting -> {Succeeded, FailedPrompting} -> {Attempting, Abandoned}。
// 每次尝试都重新分配目标名（上一次失败后目录内容可能已变化）。
// decide 为 nil 等价于总是 Skip；ctx 被取消时视为放弃。
func (m Mover) Move(ctx context.Context, src, dir string, captured *time.Time, decide DecideFunc) domain.MoveOutcome {
	out := domain.MoveOutcome{Src: src, State: domain.MoveAttempting}
	name := filepath.Base(src)

	for {
		switch out.State {
		case domain.MoveAttempting:
			out.Attempts++
			dst, renamed, err := Allocate(m.Fs, dir, name, captured)
			if err == nil {
				out.Dst, out.Renamed = dst, renamed
				err = fsx.MoveNoOverwrite(m.Fs, src, dst)
			} else if out.Dst == "" {
				out.Dst = filepath.Join(dir, name)
			}
			if err != nil {
				out.Err = err
				out.State = domain.MoveFailedPrompting
				continue
			}
			out.Err = nil
			out.State = domain.MoveSucceeded
			log.Info().Str("src", src).Str("dst", out.Dst).Int("attempts", out.Attempts).Msg("已移动")

		case domain.MoveFailedPrompting:
			if ctx.Err() != nil {
				out.State = domain.MoveAbandoned
				continue
			}
			d := Skip
			if decide != nil {
				d = decide(ctx, Failure{Src: src, Dst: out.Dst, Attempt: out.Attempts, Err: out.Err})
			}
			if d == Retry {
				log.Debug().Str("src", src).Int("attempt", out.Attempts).Msg("重试移动")
				out.State = domain.MoveAttempting
				continue
			}
			out.State = domain.MoveAbandoned
			log.Warn().Err(out.Err).Str("src", src).Str("dst", out.Dst).Msg("已跳过移动")
		}

		if out.State.Terminal() {
			return out
		}
	}
}
