package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/rawcull/internal/app/session"
	"github.com/John-Robertt/rawcull/internal/cull"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "列出配对结果（不移动任何文件）",
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
			seq, err := session.Build(cmd.Context(), eff, session.Deps{
				Prompter: cull.SkipAll{},
				Observer: obs,
			})
			if err != nil {
				return err
			}

			pairs := seq.Pairs()
			if len(pairs) == 0 {
				fmt.Fprintln(ctx.io.out, "没有找到可用的图片")
				return nil
			}

			rows := make([][]string, 0, len(pairs))
			for i, p := range pairs {
				rows = append(rows, pairRow(i+1, p))
			}
			headers := []string{"#", "类型", "JPEG", "RAW", "拍摄时间", "参数", "预览"}
			aligns := []columnAlignment{alignRight}
			fmt.Fprintln(ctx.io.out, renderTable(headers, rows, aligns))
			fmt.Fprintf(ctx.io.out, "共 %d 组\n", len(pairs))
			return nil
		},
	}
}

func pairRow(idx int, p *cull.Pair) []string {
	jpeg, raw := "-", "-"
	if p.HasJPEG() {
		jpeg = filepath.Base(p.JPEGPath())
	}
	if p.HasRaw() {
		raw = filepath.Base(p.RawPath())
	}
	shot := "-"
	if p.Meta.HasCaptureTime() {
		shot = p.Meta.CaptureTime.Format("2006-01-02 15:04:05")
	}
	pv := "-"
	if v := p.Preview(); v != nil {
		pv = fmt.Sprintf("%dx%d %s", v.Width(), v.Height(), v.Source())
	}
	return []string{strconv.Itoa(idx), p.Mode(), jpeg, raw, shot, orDash(p.Meta.Summary()), pv}
}
