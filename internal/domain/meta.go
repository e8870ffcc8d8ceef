package domain

import (
	"strings"
	"time"
)

// CaptureMeta 是拍摄参数的尽力而为记录。
//
// 约束：
// - 任何字段缺失都允许为空（空串 / nil），读取失败不能导致构建失败
// - 字符串字段已经是面向用户的格式（例如 "1/250s"、"f/2.8"）
type CaptureMeta struct {
	Shutter      string
	Aperture     string
	ISO          string
	ExposureComp string
	FocalLength  string
	Lens         string

	// CaptureTime 只有在读到 DateTimeOriginal（或等价字段）时才非 nil。
	CaptureTime *time.Time
}

// HasCaptureTime 表示是否可以用于 rename-on-move。
func (m CaptureMeta) HasCaptureTime() bool { return m.CaptureTime != nil && !m.CaptureTime.IsZero() }

// Summary 把非空字段按固定顺序用空格拼接，全部为空时返回空串。
func (m CaptureMeta) Summary() string {
	parts := make([]string, 0, 6)
	for _, s := range []string{m.Shutter, m.Aperture, m.ISO, m.ExposureComp, m.FocalLength, m.Lens} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
