package pairing

import (
	"fmt"
	"sort"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/scan"
)

// UnsupportedFormatError 表示扩展名既不是 raw 也不是 JPEG（或没有扩展名）。
// 这是构建期的致命错误：整个构建失败，不返回部分结果。
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("不支持的文件格式：%q", e.Path)
}

// DuplicateBasenameError 表示两个同类型文件共享同一个 basename（例如 A.JPG 与 A.JPEG）。
// 配对无法决定保留哪一个，属于输入不变量被破坏，直接失败。
type DuplicateBasenameError struct {
	Stem   string
	Kind   domain.Kind
	First  string
	Second string
}

func (e *DuplicateBasenameError) Error() string {
	return fmt.Sprintf("同一 basename %q 出现了两个 %s 文件：%q 与 %q", e.Stem, e.Kind, e.First, e.Second)
}

// Classifier 按扩展名判定文件类型（大小写不敏感）。
type Classifier struct {
	Raw  scan.ExtSet
	JPEG scan.ExtSet
}

// KindOf 返回文件名对应的类型；raw 优先于 JPEG（两个集合重叠时）。
func (c Classifier) KindOf(name string) domain.Kind {
	switch {
	case c.Raw.Match(name):
		return domain.KindRaw
	case c.JPEG.Match(name):
		return domain.KindJPEG
	default:
		return domain.KindUnknown
	}
}

// Pair 把 raw 与 JPEG 文件合并为按文件名排序的配对序列。
//
// 算法（输出顺序即整个系统的规范顺序）：
// 1) 按文件名（不是完整路径）字典序排序
// 2) 从左到右扫描：i 与 i+1 basename 相同且类型互补 => 一对，i += 2；否则 i 单独成对，i += 1
// 3) 任一文件类型未知 => UnsupportedFormatError；同类型同 basename（无论是否相邻）=> DuplicateBasenameError
//
// 输入切片不会被修改。
func Pair(files []domain.ImageFile, c Classifier) ([]domain.PairPlan, error) {
	sorted := append([]domain.ImageFile(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		// 文件名相同（来自两个目录）时用完整路径兜底，保证确定性。
		return sorted[i].Path < sorted[j].Path
	})

	if err := checkDuplicates(sorted, c); err != nil {
		return nil, err
	}

	plans := make([]domain.PairPlan, 0, len(sorted))
	for i := 0; i < len(sorted); {
		cur := sorted[i]
		var plan domain.PairPlan
		assign(&plan, c.KindOf(cur.Name), cur.Path)

		step := 1
		// 类型未知与同类型重名已在 checkDuplicates 中拒绝：同 basename 的邻居必然是另一类型。
		if i+1 < len(sorted) && sorted[i+1].Stem() == cur.Stem() {
			next := sorted[i+1]
			assign(&plan, c.KindOf(next.Name), next.Path)
			step = 2
		}

		plans = append(plans, plan)
		i += step
	}
	return plans, nil
}

type stemKind struct {
	stem string
	kind domain.Kind
}

// checkDuplicates 在配对前拒绝未知类型以及同类型同 basename 的文件。
// 例如 A.NEF、A.jpeg、A.jpg：相邻检查只会看到前两个成对，A.jpg 会被漏成单张。
func checkDuplicates(sorted []domain.ImageFile, c Classifier) error {
	seen := make(map[stemKind]string, len(sorted))
	for _, f := range sorted {
		kind := c.KindOf(f.Name)
		if kind == domain.KindUnknown {
			return &UnsupportedFormatError{Path: f.Path}
		}
		key := stemKind{stem: f.Stem(), kind: kind}
		if first, ok := seen[key]; ok {
			return &DuplicateBasenameError{Stem: key.stem, Kind: kind, First: first, Second: f.Path}
		}
		seen[key] = f.Path
	}
	return nil
}

func assign(p *domain.PairPlan, k domain.Kind, path string) {
	switch k {
	case domain.KindRaw:
		p.RawPath = path
	case domain.KindJPEG:
		p.JPEGPath = path
	}
}
