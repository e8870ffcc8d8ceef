package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/rawcull/internal/app/session"
	"github.com/John-Robertt/rawcull/internal/config"
	"github.com/John-Robertt/rawcull/internal/cull"
	"github.com/John-Robertt/rawcull/internal/domain"
)

var _ session.Observer = (*progressUI)(nil)

// progressUI 把会话事件输出到 stderr（仅交互终端启用）。
//
// - 事件驱动：session/cull 只发事件，CLI 决定如何展示
// - 构建阶段每隔一段时间输出一行进度，避免大目录解码时长时间无输出
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time
	interval    time.Duration

	total   int
	built   int
	skipped int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w, interval: 2 * time.Second}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.startedAt = now

	fmt.Fprintf(p.w, "[%s] rawcull session\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintf(p.w, "  raw: %s (%s)\n", rel(eff.BaseDir, eff.RawFolder), strings.Join(eff.RawExtensions, " "))
	fmt.Fprintf(p.w, "  jpeg: %s (%s)\n", rel(eff.BaseDir, eff.JPEGFolder), strings.Join(eff.JPEGExtensions, " "))
	fmt.Fprintf(p.w, "  keep: raw=%s jpeg=%s\n", rel(eff.BaseDir, eff.KeepRawFolder), rel(eff.BaseDir, eff.KeepJPEGFolder))
	if eff.DeleteRawFolder == eff.DeleteJPEGFolder {
		fmt.Fprintf(p.w, "  delete: %s\n", rel(eff.BaseDir, eff.DeleteFolder))
	} else {
		fmt.Fprintf(p.w, "  delete: raw=%s jpeg=%s\n", rel(eff.BaseDir, eff.DeleteRawFolder), rel(eff.BaseDir, eff.DeleteJPEGFolder))
	}
	fmt.Fprintf(p.w, "  report: %s\n", onOff(eff.Report))
	fmt.Fprintln(p.w)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "prepare":
		fmt.Fprintf(p.w, "准备: dirs=%d (%s)\n", intField(fields, "dirs"), formatShortDuration(dur))
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "build":
		fmt.Fprintf(p.w, "构建: pairs=%d skipped=%d (%s)\n\n", intField(fields, "pairs"), p.skipped, formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnBuildStart(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
}

func (p *progressUI) OnPairBuilt(idx, total int, _ *cull.Pair) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.built++
	if idx < total && time.Since(p.lastPrinted) >= p.interval {
		fmt.Fprintf(p.w, "进度: %d/%d elapsed=%s\n", idx, total, formatElapsed(time.Since(p.startedAt)))
		p.lastPrinted = time.Now()
	}
}

func (p *progressUI) OnPairSkipped(idx, total int, plan domain.PairPlan, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped++

	name := plan.RawPath
	if name == "" {
		name = plan.JPEGPath
	}
	fmt.Fprintf(p.w, "[%d/%d] SKIP %s: %s\n", idx, total, filepath.Base(name), truncate(fmt.Sprint(err), 160))
	p.lastPrinted = time.Now()
}

// OnDisposed 不输出：处置结果由交互界面展示在 stdout。
func (p *progressUI) OnDisposed(cull.Disposition, int) {}

func rel(base, path string) string {
	if r, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	if v, ok := fields[key].(int); ok {
		return v
	}
	return 0
}
