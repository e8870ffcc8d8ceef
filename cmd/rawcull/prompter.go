package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/John-Robertt/rawcull/internal/cull"
)

var _ cull.Prompter = (*termPrompter)(nil)

// termPrompter 在终端上逐行询问用户。
//
// 输入结束（EOF）时无法再询问：缩略图问题按“中止”处理，移动失败按“跳过”处理。
type termPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTermPrompter(in *bufio.Reader, out io.Writer) *termPrompter {
	return &termPrompter{in: in, out: out}
}

func (p *termPrompter) OnUnsupportedThumbnail(_ context.Context, path string, err error) cull.ThumbnailDecision {
	fmt.Fprintf(p.out, "无法识别缩略图：%s\n  %v\n", path, err)
	switch p.ask("[s] 跳过这一组  [a] 中止", "s", "a") {
	case "s":
		return cull.ThumbnailSkip
	default:
		return cull.ThumbnailAbort
	}
}

func (p *termPrompter) OnMoveFailure(_ context.Context, f cull.MoveFailure) cull.MoveDecision {
	fmt.Fprintf(p.out, "移动失败（第 %d 次）：%s -> %s\n  %v\n", f.Attempt, f.Src, f.Dst, f.Err)
	switch p.ask("[r] 重试  [s] 跳过这个文件", "r", "s") {
	case "r":
		return cull.MoveRetry
	default:
		return cull.MoveSkip
	}
}

// ask 反复询问直到得到 choices 之一；EOF 时返回空串。
func (p *termPrompter) ask(question string, choices ...string) string {
	for {
		fmt.Fprintf(p.out, "%s ? ", question)
		line, err := p.in.ReadString('\n')
		ans := strings.ToLower(strings.TrimSpace(line))
		for _, c := range choices {
			if ans == c {
				return c
			}
		}
		if err != nil {
			fmt.Fprintln(p.out)
			return ""
		}
		fmt.Fprintf(p.out, "请输入 %s\n", strings.Join(choices, " / "))
	}
}
