package domain

import (
	"path/filepath"
	"strings"
)

// Kind 标识文件在配对中的角色。
type Kind int

const (
	KindUnknown Kind = iota
	KindRaw
	KindJPEG
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindJPEG:
		return "jpeg"
	default:
		return "unknown"
	}
}

// Other 返回配对中的另一种类型；KindUnknown 没有对端。
func (k Kind) Other() Kind {
	switch k {
	case KindRaw:
		return KindJPEG
	case KindJPEG:
		return KindRaw
	default:
		return KindUnknown
	}
}

// ImageFile 描述一次扫描得到的图片文件（只做 stat，不读内容）。
//
// 不变量：
// - Path 必须是 clean 后的路径
// - Name 是 filepath.Base(Path)，排序与配对都只看 Name
type ImageFile struct {
	Path string
	Name string
	Size int64
}

// NewImageFile 由路径构造 ImageFile（Size 未知时传 0）。
func NewImageFile(path string, size int64) ImageFile {
	path = filepath.Clean(path)
	return ImageFile{Path: path, Name: filepath.Base(path), Size: size}
}

// Ext 返回文件名的扩展名（保持原始大小写，含前导 '.'）。
func (f ImageFile) Ext() string { return filepath.Ext(f.Name) }

// Stem 返回去掉最后一个扩展名后的文件名。
func (f ImageFile) Stem() string { return strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) }
