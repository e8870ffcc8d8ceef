package cull

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/preview"
)

// State 是配对在序列中的生命周期状态。
type State int

const (
	Pending State = iota
	Disposed
)

func (s State) String() string {
	if s == Disposed {
		return "disposed"
	}
	return "pending"
}

// Pair 是一张逻辑照片：同名的 raw 与 JPEG（任一可缺），附带预览与拍摄信息。
//
// 不变量：构造后路径不再变化；只有 state 与预览句柄会在处置时改变。
type Pair struct {
	rawPath  string
	jpegPath string

	Meta domain.CaptureMeta

	preview *preview.Preview
	state   State
}

func newPair(plan domain.PairPlan, meta domain.CaptureMeta, pv *preview.Preview) *Pair {
	return &Pair{
		rawPath:  plan.RawPath,
		jpegPath: plan.JPEGPath,
		Meta:     meta,
		preview:  pv,
	}
}

func (p *Pair) RawPath() string  { return p.rawPath }
func (p *Pair) JPEGPath() string { return p.jpegPath }
func (p *Pair) HasRaw() bool     { return p.rawPath != "" }
func (p *Pair) HasJPEG() bool    { return p.jpegPath != "" }
func (p *Pair) State() State     { return p.state }

// Preview 返回预览句柄；处置后句柄已释放（Image() 为 nil）。
func (p *Pair) Preview() *preview.Preview { return p.preview }

// Mode 返回 "RAW+JPEG" / "RAW ONLY" / "JPEG ONLY"。
func (p *Pair) Mode() string {
	switch {
	case p.HasRaw() && p.HasJPEG():
		return "RAW+JPEG"
	case p.HasRaw():
		return "RAW ONLY"
	default:
		return "JPEG ONLY"
	}
}

// Label 是展示用的一行摘要：模式、拍摄参数、预览尺寸。
func (p *Pair) Label() string {
	parts := []string{p.Mode()}
	if s := p.Meta.Summary(); s != "" {
		parts = append(parts, s)
	}
	if p.preview != nil && p.preview.Width() > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", p.preview.Width(), p.preview.Height()))
	}
	return strings.Join(parts, "  ")
}

// Title 是文件名列表（JPEG 在前），用 " | " 连接。
func (p *Pair) Title() string {
	names := make([]string, 0, 2)
	if p.HasJPEG() {
		names = append(names, filepath.Base(p.jpegPath))
	}
	if p.HasRaw() {
		names = append(names, filepath.Base(p.rawPath))
	}
	return strings.Join(names, " | ")
}

func (p *Pair) release() {
	p.preview.Release()
	p.state = Disposed
}
