package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/rawcull/internal/app/session"
	"github.com/John-Robertt/rawcull/internal/cull"
	"github.com/John-Robertt/rawcull/internal/domain"
)

// errNoImages 对应“没有任何可浏览的配对”：交互界面无从开始。
var errNoImages = errors.New("没有可用的图片")

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "逐张浏览并筛选照片（交互式）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.load(cmd)
			if err != nil {
				return err
			}

			var obs session.Observer
			if isTerminal(ctx.io.err) {
				obs = newProgressUI(ctx.io.err)
			}
			s, err := session.Open(cmd.Context(), eff, session.Deps{
				Prompter: newTermPrompter(ctx.io.in, ctx.io.out),
				Observer: obs,
			})
			if err != nil {
				return err
			}

			seq := s.Sequence()
			if seq.OriginalCount() == 0 {
				_, _ = s.Close()
				return errNoImages
			}

			r := &repl{seq: seq, in: ctx.io.in, out: ctx.io.out}
			r.loop(cmd.Context())

			path, err := s.Close()
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.io.out, "已处理 %d/%d 组\n", seq.OriginalCount()-seq.CurrentCount(), seq.OriginalCount())
			if path != "" {
				fmt.Fprintf(ctx.io.out, "报告：%s\n", path)
			}
			return nil
		},
	}
}

const replHelp = `命令：
  n  下一组        p  上一组
  r  保留 raw      j  保留 JPEG      d  全部删除
  i  详细信息      q  退出           ?  帮助
`

// repl 是交互界面：每次读一行命令，作用于序列后重新展示当前配对。
// 前置条件（例如没有 raw 时不能保留 raw）在这里检查，不会触发序列的 panic。
type repl struct {
	seq interface {
		Current() *cull.Pair
		Position() int
		CurrentCount() int
		HasNext() bool
		HasPrev() bool
		Advance() *cull.Pair
		Retreat() *cull.Pair
		KeepRaw(ctx context.Context) cull.Disposition
		KeepJPEG(ctx context.Context) cull.Disposition
		DeleteBoth(ctx context.Context) cull.Disposition
	}
	in interface {
		ReadString(delim byte) (string, error)
	}
	out io.Writer
}

func (r *repl) loop(ctx context.Context) {
	fmt.Fprint(r.out, replHelp)
	show := true
	for {
		cur := r.seq.Current()
		if cur == nil {
			fmt.Fprintln(r.out, "全部处理完成")
			return
		}
		if show {
			r.show(cur)
		}
		show = true

		fmt.Fprint(r.out, "> ")
		line, err := r.in.ReadString('\n')
		cmd := strings.ToLower(strings.TrimSpace(line))
		if cmd == "" && err != nil {
			fmt.Fprintln(r.out)
			return
		}

		switch cmd {
		case "n":
			if !r.seq.HasNext() {
				fmt.Fprintln(r.out, "已经是最后一组")
				show = false
				continue
			}
			r.seq.Advance()
		case "p":
			if !r.seq.HasPrev() {
				fmt.Fprintln(r.out, "已经是第一组")
				show = false
				continue
			}
			r.seq.Retreat()
		case "r":
			if !cur.HasRaw() {
				fmt.Fprintln(r.out, "这一组没有 raw 文件")
				show = false
				continue
			}
			r.report(r.seq.KeepRaw(ctx))
		case "j":
			if !cur.HasJPEG() {
				fmt.Fprintln(r.out, "这一组没有 JPEG 文件")
				show = false
				continue
			}
			r.report(r.seq.KeepJPEG(ctx))
		case "d":
			r.report(r.seq.DeleteBoth(ctx))
		case "i":
			r.info(cur)
			show = false
		case "q":
			return
		case "?", "h", "help":
			fmt.Fprint(r.out, replHelp)
			show = false
		case "":
		default:
			fmt.Fprintf(r.out, "未知命令 %q（? 查看帮助）\n", cmd)
			show = false
		}

		if err != nil {
			return
		}
	}
}

func (r *repl) show(p *cull.Pair) {
	fmt.Fprintf(r.out, "\n[%d/%d] %s\n  %s\n", r.seq.Position(), r.seq.CurrentCount(), p.Title(), p.Label())
}

func (r *repl) info(p *cull.Pair) {
	fmt.Fprintf(r.out, "  raw:   %s\n", orDash(p.RawPath()))
	fmt.Fprintf(r.out, "  jpeg:  %s\n", orDash(p.JPEGPath()))
	if p.Meta.HasCaptureTime() {
		fmt.Fprintf(r.out, "  拍摄:  %s\n", p.Meta.CaptureTime.Format("2006-01-02 15:04:05"))
	}
	if p.Meta.Lens != "" {
		fmt.Fprintf(r.out, "  镜头:  %s\n", p.Meta.Lens)
	}
	if pv := p.Preview(); pv != nil {
		fmt.Fprintf(r.out, "  预览:  %dx%d %s (%s)\n", pv.Width(), pv.Height(), pv.ColorModel(), pv.Source())
	}
}

func (r *repl) report(d cull.Disposition) {
	fmt.Fprintf(r.out, "%s：%s\n", actionLabel(d.Action), d.Title)
	for _, m := range d.Moves {
		if m.Succeeded() {
			fmt.Fprintf(r.out, "  %s -> %s\n", m.Src, m.Dst)
		} else {
			fmt.Fprintf(r.out, "  %s 未移动：%v\n", m.Src, m.Err)
		}
	}
}

func actionLabel(action string) string {
	switch action {
	case domain.ActionKeepRaw:
		return "保留 raw"
	case domain.ActionKeepJPEG:
		return "保留 JPEG"
	case domain.ActionDeleteBoth:
		return "删除"
	default:
		return action
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
